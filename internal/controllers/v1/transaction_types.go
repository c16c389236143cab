package v1

import (
	"fmt"

	"github.com/buildledger/backend/internal/models"
	ez_uuid "github.com/buildledger/backend/internal/uuid"
	"github.com/gin-gonic/gin"
)

type TransactionLinks struct {
	Self string `json:"self" example:"https://example.com/api/v1/transactions/d1b4a9c6-21f0-4a5e-a5c6-7b8a5e3f2d9e"`
}

// Transaction is the API representation of a ledger transaction.
type Transaction struct {
	models.Transaction
	Links TransactionLinks `json:"links"`
}

// newTransaction returns the API representation of the resource.
func newTransaction(c *gin.Context, model models.Transaction) Transaction {
	url := c.GetString(string(models.DBContextURL))

	return Transaction{
		Transaction: model,
		Links: TransactionLinks{
			Self: fmt.Sprintf("%s/v1/transactions/%s", url, model.ID),
		},
	}
}

type TransactionResponse struct {
	Error *string      `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
	Data  *Transaction `json:"data"`                                                          // The transaction data
}

type TransactionListResponse struct {
	Data       []Transaction `json:"data"`                                                          // List of transactions
	Error      *string       `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
	Pagination *Pagination   `json:"pagination"`                                                    // Pagination information
}

type TransactionQueryFilter struct {
	ProjectID  ez_uuid.UUID      `form:"project"`                    // ID of the project
	TaskID     ez_uuid.UUID      `form:"task"`                       // ID of the task
	SourceType models.SourceType `form:"type" filterField:"false"`   // Source type, "purchase_order" or "change_order"
	SourceID   ez_uuid.UUID      `form:"source"`                     // ID of the originating order
	Offset     uint              `form:"offset" filterField:"false"` // The offset of the first transaction returned. Defaults to 0.
	Limit      int               `form:"limit" filterField:"false"`  // Maximum number of transactions to return. Defaults to 50.
}

func (f TransactionQueryFilter) model() models.Transaction {
	return models.Transaction{
		ProjectID: f.ProjectID.UUID,
		TaskID:    f.TaskID.UUID,
		SourceID:  f.SourceID.UUID,
	}
}
