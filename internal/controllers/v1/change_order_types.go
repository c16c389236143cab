package v1

import (
	"fmt"

	"github.com/buildledger/backend/internal/models"
	ez_uuid "github.com/buildledger/backend/internal/uuid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ChangeOrderEditable struct {
	TaskID      uuid.UUID `json:"taskId" binding:"required" example:"c672cb11-8ed8-4c46-9ee8-57a3e8b6f4d1"` // ID of the task whose budget the order affects
	Title       string    `json:"title" binding:"required" example:"Additional drainage"`
	Description string    `json:"description" example:"Client requested additional drainage on the north side"`
	Reason      string    `json:"reason" example:"Soil survey revision"`
	CreatedByID uuid.UUID `json:"createdById" binding:"required" example:"06cb2c31-ff07-4d97-977b-0b0eaf725cd9"`
}

// model returns the database resource for the API representation of the editable fields
func (editable ChangeOrderEditable) model() models.ChangeOrder {
	return models.ChangeOrder{
		TaskID:      editable.TaskID,
		Title:       editable.Title,
		Description: editable.Description,
		Reason:      editable.Reason,
		CreatedByID: editable.CreatedByID,
	}
}

// ChangeOrderUpdateable are the fields a PATCH may change while the order
// is editable. Status only moves through the lifecycle endpoints.
type ChangeOrderUpdateable struct {
	Title       string `json:"title" example:"Additional drainage"`
	Description string `json:"description" example:"Client requested additional drainage on the north side"`
	Reason      string `json:"reason" example:"Soil survey revision"`
}

type ChangeOrderItemEditable struct {
	Name       string            `json:"name" binding:"required" example:"Drainage piping"`
	ChangeType models.ChangeType `json:"changeType" binding:"required" example:"Addition"`
	Impact     models.Impact     `json:"impact" binding:"required" example:"+"`
	Amount     decimal.Decimal   `json:"amount" example:"2000.00"`
}

// ChangeOrderItemUpdateable are the item fields a PATCH may change.
// Unlike the create body, none of them are mandatory.
type ChangeOrderItemUpdateable struct {
	Name       string            `json:"name" example:"Drainage piping"`
	ChangeType models.ChangeType `json:"changeType" example:"Addition"`
	Impact     models.Impact     `json:"impact" example:"+"`
	Amount     decimal.Decimal   `json:"amount" example:"2000.00"`
}

type ChangeOrderLinks struct {
	Self        string `json:"self" example:"https://example.com/api/v1/change-orders/7d5cf59b-bd23-45e8-8a35-f42f1e25b7a3"`
	Items       string `json:"items" example:"https://example.com/api/v1/change-orders/7d5cf59b-bd23-45e8-8a35-f42f1e25b7a3/items"`
	TotalImpact string `json:"totalImpact" example:"https://example.com/api/v1/change-orders/7d5cf59b-bd23-45e8-8a35-f42f1e25b7a3/total-impact"`
}

// ChangeOrder is the API representation of a change order.
type ChangeOrder struct {
	models.ChangeOrder
	NetImpact decimal.Decimal  `json:"netImpact" example:"1500.00"` // Signed sum of all items
	Links     ChangeOrderLinks `json:"links"`
}

// newChangeOrder returns the API representation of the resource.
func newChangeOrder(c *gin.Context, model models.ChangeOrder, net decimal.Decimal) ChangeOrder {
	url := c.GetString(string(models.DBContextURL))

	return ChangeOrder{
		ChangeOrder: model,
		NetImpact:   net,
		Links: ChangeOrderLinks{
			Self:        fmt.Sprintf("%s/v1/change-orders/%s", url, model.ID),
			Items:       fmt.Sprintf("%s/v1/change-orders/%s/items", url, model.ID),
			TotalImpact: fmt.Sprintf("%s/v1/change-orders/%s/total-impact", url, model.ID),
		},
	}
}

type ChangeOrderResponse struct {
	Error *string      `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
	Data  *ChangeOrder `json:"data"`                                                          // The change order data
}

type ChangeOrderApprovalResponse struct {
	Error       *string             `json:"error" example:"the order status does not allow this operation"` // The error, if any occurred
	Data        *ChangeOrder        `json:"data"`                                                           // The approved change order
	Transaction *models.Transaction `json:"transaction"`                                                    // The ledger transaction the approval created, null for zero-impact approvals
}

type ChangeOrderListResponse struct {
	Data       []ChangeOrder `json:"data"`                                                          // List of change orders
	Error      *string       `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
	Pagination *Pagination   `json:"pagination"`                                                    // Pagination information
}

type ChangeOrderItemResponse struct {
	Error *string                 `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
	Data  *models.ChangeOrderItem `json:"data"`                                                          // The item data
}

// TotalImpactResponse is the net financial impact of a change order.
type TotalImpactResponse struct {
	Error *string          `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
	Data  *decimal.Decimal `json:"data" example:"1500.00"`                                        // Signed sum of all items
}

type ChangeOrderQueryFilter struct {
	Status       models.OrderStatus `form:"status" filterField:"false"` // Order status
	TaskID       ez_uuid.UUID       `form:"task"`                       // ID of the task
	CreatedByID  ez_uuid.UUID       `form:"createdBy"`                  // ID of the creating user
	ApprovedByID ez_uuid.UUID       `form:"approvedBy" filterField:"false"`
	Offset       uint               `form:"offset" filterField:"false"` // The offset of the first order returned. Defaults to 0.
	Limit        int                `form:"limit" filterField:"false"`  // Maximum number of orders to return. Defaults to 50.
}

func (f ChangeOrderQueryFilter) model() models.ChangeOrder {
	return models.ChangeOrder{
		TaskID:      f.TaskID.UUID,
		CreatedByID: f.CreatedByID.UUID,
	}
}
