package models

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"regexp"
	"strings"
	"time"

	go_sqlite "github.com/glebarez/go-sqlite"
	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

type ContextKey string

const (
	DBContextURL ContextKey = "buildledger-url"
)

// Connect opens the database and configures the connection pool.
//
// When DB_HOST is set, postgres is used and the DB_* environment variables
// configure the connection. Otherwise dsn is the path to the sqlite file.
func Connect(dsn string) error {
	config := &gorm.Config{
		// Set generated timestamps in UTC
		NowFunc: func() time.Time {
			return time.Now().In(time.UTC)
		},
		Logger: &logger{
			Logger: log.Logger,
		},
	}

	var db *gorm.DB
	var err error

	if host, ok := os.LookupEnv("DB_HOST"); ok {
		log.Debug().Msg("DB_HOST is set, using postgresql")
		pgDSN := fmt.Sprintf("host=%s user=%s password=%s dbname=%s", host, os.Getenv("DB_USER"), os.Getenv("DB_PASSWORD"), os.Getenv("DB_NAME"))
		db, err = gorm.Open(postgres.Open(pgDSN), config)
	} else {
		db, err = gorm.Open(sqlite.Open(fmt.Sprintf("%s?_pragma=foreign_keys(1)", dsn)), config)
	}

	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	err = migrate(db)
	if err != nil {
		return err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database object: %w", err)
	}

	// Get new connections after one hour
	sqlDB.SetConnMaxLifetime(time.Hour)

	if _, ok := os.LookupEnv("DB_HOST"); !ok {
		// This is done to prevent SQLITE_BUSY errors.
		// All writes are serialized over a single connection, which also
		// serializes the budget read-modify-write per task.
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetMaxOpenConns(1)
	}

	// Query callbacks
	err = db.Callback().Query().After("*").Register("buildledger:after_query", queryCallback)
	if err != nil {
		return err
	}

	err = db.Callback().Query().After("*").Register("buildledger:after_query_general", generalCallback)
	if err != nil {
		return err
	}

	// Create callbacks
	err = db.Callback().Create().After("*").Register("buildledger:after_create", createUpdateCallback)
	if err != nil {
		return err
	}

	err = db.Callback().Create().After("*").Register("buildledger:after_create_general", generalCallback)
	if err != nil {
		return err
	}

	// Update callbacks
	err = db.Callback().Update().After("*").Register("buildledger:after_update", createUpdateCallback)
	if err != nil {
		return err
	}

	err = db.Callback().Update().After("*").Register("buildledger:after_update_general", generalCallback)
	if err != nil {
		return err
	}

	// Delete callbacks
	err = db.Callback().Delete().After("*").Register("buildledger:after_delete_general", generalCallback)
	if err != nil {
		return err
	}

	DB = db

	return nil
}

// migrate migrates all models to the schema defined in the code.
func migrate(db *gorm.DB) error {
	err := db.AutoMigrate(User{}, Project{}, Task{}, Vendor{}, NumberSequence{}, PurchaseOrder{}, PurchaseOrderItem{}, ChangeOrder{}, ChangeOrderItem{}, Transaction{})
	if err != nil {
		return fmt.Errorf("error during DB migration: %w", err)
	}

	return nil
}

// queryCallback replaces the generic "no record" error with a more user
// friendly one
func queryCallback(db *gorm.DB) {
	if errors.Is(db.Error, gorm.ErrRecordNotFound) {
		// Use the table name as information about the type of resource
		// and replace "_" with "[space]"
		name := strings.ReplaceAll(db.Statement.Table, "_", " ")

		// Replace pluralized "ies" with "y"
		match := regexp.MustCompile("ies$")
		name = match.ReplaceAllString(name, "y")

		// Remove plural "s"
		name = strings.TrimRight(name, "s")

		db.Error = fmt.Errorf("%w %s matching your query", ErrResourceNotFound, name)
	}
}

// createUpdateCallback inspects errors returned by the database for create
// and update calls and replaces them with user friendly ones
func createUpdateCallback(db *gorm.DB) {
	if db.Error == nil {
		return
	}

	// At most one ledger row per approved order
	if strings.Contains(db.Error.Error(), "UNIQUE constraint failed: transactions.source_type, transactions.source_id") {
		db.Error = ErrTransactionExists
	}

	// Vendor names are unique
	if strings.Contains(db.Error.Error(), "UNIQUE constraint failed: vendors.name") {
		db.Error = ErrVendorNameNotUnique
	}

	// Order and transaction numbers are unique. A violation means two
	// writers allocated the same sequence value, which is safe to retry.
	if strings.Contains(db.Error.Error(), "UNIQUE constraint failed: purchase_orders.number") ||
		strings.Contains(db.Error.Error(), "UNIQUE constraint failed: change_orders.number") ||
		strings.Contains(db.Error.Error(), "UNIQUE constraint failed: transactions.number") {
		db.Error = fmt.Errorf("%w: duplicate document number", ErrConflict)
	}

	// General message when a field references a non-existing resource
	if strings.Contains(db.Error.Error(), "constraint failed: FOREIGN KEY constraint failed") {
		db.Error = fmt.Errorf("%w: there is no resource for the ID you specified in the reference to another resource", ErrInvalid)
	}
}

// generalCallback handles unspecified errors.
func generalCallback(db *gorm.DB) {
	if db.Error == nil {
		return
	}

	// "sql: database is closed" is hard-coded in the sql module, see
	// https://cs.opensource.google/go/go/+/master:src/database/sql/sql.go;l=1298;drc=0d018b49e33b1383dc0ae5cc968e800dffeeaf7d
	if db.Error.Error() == "sql: database is closed" || reflect.TypeOf(db.Error) == reflect.TypeOf(&go_sqlite.Error{}) {
		// A general error where we cannot provide more useful information
		// to the end user. We log the error and provide a general error
		// message so that server admins can debug.
		log.Error().Msgf("%T: %v", db.Error, db.Error.Error())
		db.Error = ErrGeneral

		return
	}
}
