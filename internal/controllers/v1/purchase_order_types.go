package v1

import (
	"fmt"

	"github.com/buildledger/backend/internal/models"
	ez_uuid "github.com/buildledger/backend/internal/uuid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PurchaseOrderEditable struct {
	TaskID      uuid.UUID `json:"taskId" binding:"required" example:"c672cb11-8ed8-4c46-9ee8-57a3e8b6f4d1"`  // ID of the task whose budget the order draws from
	VendorID    uuid.UUID `json:"vendorId" binding:"required" example:"5b8cfc27-9a26-4c05-9e49-283aa40bf70b"` // ID of the vendor the order commits money to
	Description string    `json:"description" example:"Rebar delivery for foundation"`                        // What is being purchased
	CreatedByID uuid.UUID `json:"createdById" binding:"required" example:"06cb2c31-ff07-4d97-977b-0b0eaf725cd9"`
}

// model returns the database resource for the API representation of the editable fields
func (editable PurchaseOrderEditable) model() models.PurchaseOrder {
	return models.PurchaseOrder{
		TaskID:      editable.TaskID,
		VendorID:    editable.VendorID,
		Description: editable.Description,
		CreatedByID: editable.CreatedByID,
	}
}

// PurchaseOrderUpdateable are the fields a PATCH may change while the
// order is editable. Status is deliberately absent: it only moves through
// the submit, approve, reject and fulfill endpoints.
type PurchaseOrderUpdateable struct {
	VendorID    uuid.UUID `json:"vendorId" example:"5b8cfc27-9a26-4c05-9e49-283aa40bf70b"`
	Description string    `json:"description" example:"Rebar delivery for foundation"`
}

type PurchaseOrderItemEditable struct {
	Name     string              `json:"name" binding:"required" example:"Rebar B500B 12mm"`
	Category models.ItemCategory `json:"category" binding:"required" example:"Material"`
	Price    decimal.Decimal     `json:"price" example:"1200.00"`
}

// PurchaseOrderItemUpdateable are the item fields a PATCH may change.
// Unlike the create body, none of them are mandatory.
type PurchaseOrderItemUpdateable struct {
	Name     string              `json:"name" example:"Rebar B500B 12mm"`
	Category models.ItemCategory `json:"category" example:"Material"`
	Price    decimal.Decimal     `json:"price" example:"1200.00"`
}

type RejectionRequest struct {
	Reason string `json:"reason" example:"Quote from a cheaper vendor pending"`
}

type FulfillmentRequest struct {
	Status models.OrderStatus `json:"status" binding:"required" example:"Delivered"`
}

type PurchaseOrderLinks struct {
	Self  string `json:"self" example:"https://example.com/api/v1/purchase-orders/a6e26d7e-3e8a-43f6-8cba-e82695b94b9c"`
	Items string `json:"items" example:"https://example.com/api/v1/purchase-orders/a6e26d7e-3e8a-43f6-8cba-e82695b94b9c/items"`
}

// PurchaseOrder is the API representation of a purchase order.
type PurchaseOrder struct {
	models.PurchaseOrder
	TotalAmount decimal.Decimal    `json:"totalAmount" example:"1500.50"` // Sum of all item prices
	Links       PurchaseOrderLinks `json:"links"`
}

// newPurchaseOrder returns the API representation of the resource.
func newPurchaseOrder(c *gin.Context, model models.PurchaseOrder, total decimal.Decimal) PurchaseOrder {
	url := c.GetString(string(models.DBContextURL))

	return PurchaseOrder{
		PurchaseOrder: model,
		TotalAmount:   total,
		Links: PurchaseOrderLinks{
			Self:  fmt.Sprintf("%s/v1/purchase-orders/%s", url, model.ID),
			Items: fmt.Sprintf("%s/v1/purchase-orders/%s/items", url, model.ID),
		},
	}
}

type PurchaseOrderResponse struct {
	Error *string        `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
	Data  *PurchaseOrder `json:"data"`                                                          // The purchase order data
}

type PurchaseOrderApprovalResponse struct {
	Error       *string             `json:"error" example:"the order status does not allow this operation"` // The error, if any occurred
	Data        *PurchaseOrder      `json:"data"`                                                           // The approved purchase order
	Transaction *models.Transaction `json:"transaction"`                                                    // The ledger transaction the approval created
}

type PurchaseOrderListResponse struct {
	Data       []PurchaseOrder `json:"data"`                                                          // List of purchase orders
	Error      *string         `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
	Pagination *Pagination     `json:"pagination"`                                                    // Pagination information
}

type PurchaseOrderItemResponse struct {
	Error *string                   `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
	Data  *models.PurchaseOrderItem `json:"data"`                                                          // The item data
}

type PurchaseOrderQueryFilter struct {
	Status       models.OrderStatus `form:"status" filterField:"false"` // Order status
	TaskID       ez_uuid.UUID       `form:"task"`                       // ID of the task
	VendorID     ez_uuid.UUID       `form:"vendor"`                     // ID of the vendor
	CreatedByID  ez_uuid.UUID       `form:"createdBy"`                  // ID of the creating user
	ApprovedByID ez_uuid.UUID       `form:"approvedBy" filterField:"false"`
	Offset       uint               `form:"offset" filterField:"false"` // The offset of the first order returned. Defaults to 0.
	Limit        int                `form:"limit" filterField:"false"`  // Maximum number of orders to return. Defaults to 50.
}

func (f PurchaseOrderQueryFilter) model() models.PurchaseOrder {
	return models.PurchaseOrder{
		TaskID:      f.TaskID.UUID,
		VendorID:    f.VendorID.UUID,
		CreatedByID: f.CreatedByID.UUID,
	}
}
