package models_test

import (
	"time"

	"github.com/buildledger/backend/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func (suite *TestSuiteStandard) TestTransactionImmutable() {
	task := suite.createTestTask("10000.00")
	vendor := suite.createTestVendor()
	clerk := suite.createTestUser(models.RoleClerk)
	accountant := suite.createTestUser(models.RoleAccountant)

	order := suite.createTestPurchaseOrder(task, vendor, clerk, "100.00")
	assert.Nil(suite.T(), order.Submit())

	transaction, err := order.Approve(accountant)
	assert.Nil(suite.T(), err)

	err = models.DB.Model(transaction).Update("amount", decimal.RequireFromString("1.00")).Error
	assert.ErrorIs(suite.T(), err, models.ErrTransactionImmutable)

	err = models.DB.Delete(transaction).Error
	assert.ErrorIs(suite.T(), err, models.ErrTransactionImmutable)

	// The stored row is unchanged
	var reread models.Transaction
	assert.Nil(suite.T(), models.DB.First(&reread, "id = ?", transaction.ID).Error)
	assert.True(suite.T(), reread.Amount.Equal(decimal.RequireFromString("100.00")))
}

func (suite *TestSuiteStandard) TestTransactionSignedAmount() {
	transaction := models.Transaction{
		Amount: decimal.RequireFromString("1500.50"),
		Impact: models.ImpactDecrease,
	}
	assert.True(suite.T(), transaction.SignedAmount().Equal(decimal.RequireFromString("-1500.50")))

	transaction.Impact = models.ImpactIncrease
	assert.True(suite.T(), transaction.SignedAmount().Equal(decimal.RequireFromString("1500.50")))
}

func (suite *TestSuiteStandard) TestTransactionFindTimeUTC() {
	tz, _ := time.LoadLocation("Europe/Berlin")

	transaction := models.Transaction{
		DecidedAt: time.Date(2025, 3, 11, 14, 12, 2, 0, tz),
	}

	err := transaction.AfterFind(models.DB)
	if err != nil {
		assert.Fail(suite.T(), "transaction.AfterFind failed")
	}

	assert.Equal(suite.T(), time.UTC, transaction.DecidedAt.Location(), "Timezone for model is not UTC")
}

func (suite *TestSuiteStandard) TestTransactionRecordsProject() {
	task := suite.createTestTask("10000.00")
	vendor := suite.createTestVendor()
	clerk := suite.createTestUser(models.RoleClerk)
	accountant := suite.createTestUser(models.RoleAccountant)

	order := suite.createTestPurchaseOrder(task, vendor, clerk, "100.00")
	assert.Nil(suite.T(), order.Submit())

	transaction, err := order.Approve(accountant)
	assert.Nil(suite.T(), err)

	// The ledger row is denormalized for reporting: it carries the
	// project, the approver and the decision time
	assert.Equal(suite.T(), task.ProjectID, transaction.ProjectID)
	assert.Equal(suite.T(), task.ID, transaction.TaskID)
	assert.Equal(suite.T(), accountant.ID, transaction.ApprovedByID)
	assert.False(suite.T(), transaction.DecidedAt.IsZero())
}
