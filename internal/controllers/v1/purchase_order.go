package v1

import (
	"net/http"

	"github.com/buildledger/backend/internal/auth"
	"github.com/buildledger/backend/internal/httputil"
	"github.com/buildledger/backend/internal/models"
	ez_uuid "github.com/buildledger/backend/internal/uuid"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"golang.org/x/exp/slices"
)

// RegisterPurchaseOrderRoutes registers the routes for purchase orders
// with the RouterGroup that is passed.
func RegisterPurchaseOrderRoutes(r *gin.RouterGroup) {
	// Root group
	{
		r.OPTIONS("", OptionsPurchaseOrders)
		r.GET("", GetPurchaseOrders)
		r.POST("", CreatePurchaseOrder)
	}

	// Purchase order with ID
	{
		r.OPTIONS("/:id", OptionsPurchaseOrderDetail)
		r.GET("/:id", GetPurchaseOrder)
		r.PATCH("/:id", UpdatePurchaseOrder)
		r.DELETE("/:id", DeletePurchaseOrder)
	}

	// Lifecycle
	{
		r.POST("/:id/items", CreatePurchaseOrderItem)
		r.POST("/:id/submit", SubmitPurchaseOrder)
		r.POST("/:id/approve", auth.Middleware(), ApprovePurchaseOrder)
		r.POST("/:id/reject", auth.Middleware(), RejectPurchaseOrder)
		r.POST("/:id/fulfill", FulfillPurchaseOrder)
	}
}

// RegisterPurchaseOrderItemRoutes registers the routes for individual
// purchase order items.
func RegisterPurchaseOrderItemRoutes(r *gin.RouterGroup) {
	r.OPTIONS("/:id", OptionsPurchaseOrderItemDetail)
	r.PATCH("/:id", UpdatePurchaseOrderItem)
	r.DELETE("/:id", DeletePurchaseOrderItem)
}

// getPurchaseOrder is the shared load-by-URI helper for all detail routes.
func getPurchaseOrder(c *gin.Context) (models.PurchaseOrder, bool) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), PurchaseOrderResponse{Error: &e})
		return models.PurchaseOrder{}, false
	}

	var order models.PurchaseOrder
	err = models.DB.Preload("Items").First(&order, "id = ?", uri.ID.UUID).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), PurchaseOrderResponse{Error: &e})
		return models.PurchaseOrder{}, false
	}

	return order, true
}

// respondPurchaseOrder re-reads the order and writes it as response.
func respondPurchaseOrder(c *gin.Context, order models.PurchaseOrder) {
	err := models.DB.Preload("Items").First(&order, "id = ?", order.ID).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), PurchaseOrderResponse{Error: &e})
		return
	}

	total, err := order.TotalAmount(models.DB)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), PurchaseOrderResponse{Error: &e})
		return
	}

	data := newPurchaseOrder(c, order, total)
	c.JSON(http.StatusOK, PurchaseOrderResponse{Data: &data})
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			PurchaseOrders
// @Success		204
// @Router			/v1/purchase-orders [options]
func OptionsPurchaseOrders(c *gin.Context) {
	httputil.OptionsGetPost(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			PurchaseOrders
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/purchase-orders/{id} [options]
func OptionsPurchaseOrderDetail(c *gin.Context) {
	_, ok := getPurchaseOrder(c)
	if !ok {
		return
	}

	httputil.OptionsGetPatchDelete(c)
}

// @Summary		Create purchase order
// @Description	Creates a new purchase order in Draft and stamps its number
// @Tags			PurchaseOrders
// @Produce		json
// @Success		201		{object}	PurchaseOrderResponse
// @Failure		400		{object}	PurchaseOrderResponse
// @Failure		404		{object}	PurchaseOrderResponse
// @Failure		500		{object}	PurchaseOrderResponse
// @Param			order	body		PurchaseOrderEditable	true	"Purchase order"
// @Router			/v1/purchase-orders [post]
func CreatePurchaseOrder(c *gin.Context) {
	var editable PurchaseOrderEditable
	err := c.ShouldBindJSON(&editable)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), PurchaseOrderResponse{Error: &e})
		return
	}

	order := editable.model()
	err = models.CreatePurchaseOrder(&order)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), PurchaseOrderResponse{Error: &e})
		return
	}

	data := newPurchaseOrder(c, order, decimal.Zero)
	c.JSON(http.StatusCreated, PurchaseOrderResponse{Data: &data})
}

// @Summary		Get purchase order
// @Description	Returns a specific purchase order
// @Tags			PurchaseOrders
// @Produce		json
// @Success		200	{object}	PurchaseOrderResponse
// @Failure		400	{object}	PurchaseOrderResponse
// @Failure		404	{object}	PurchaseOrderResponse
// @Failure		500	{object}	PurchaseOrderResponse
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/purchase-orders/{id} [get]
func GetPurchaseOrder(c *gin.Context) {
	order, ok := getPurchaseOrder(c)
	if !ok {
		return
	}

	respondPurchaseOrder(c, order)
}

// @Summary		Get purchase orders
// @Description	Returns a list of purchase orders
// @Tags			PurchaseOrders
// @Produce		json
// @Success		200	{object}	PurchaseOrderListResponse
// @Failure		400	{object}	PurchaseOrderListResponse
// @Failure		500	{object}	PurchaseOrderListResponse
// @Router			/v1/purchase-orders [get]
// @Param			status		query	string	false	"Filter by order status"
// @Param			task		query	string	false	"Filter by task ID"
// @Param			vendor		query	string	false	"Filter by vendor ID"
// @Param			createdBy	query	string	false	"Filter by creating user ID"
// @Param			approvedBy	query	string	false	"Filter by approving user ID"
// @Param			offset		query	uint	false	"The offset of the first order returned. Defaults to 0."
// @Param			limit		query	int		false	"Maximum number of orders to return. Defaults to 50."
func GetPurchaseOrders(c *gin.Context) {
	var filter PurchaseOrderQueryFilter
	if err := c.Bind(&filter); err != nil {
		s := err.Error()
		c.JSON(http.StatusBadRequest, PurchaseOrderListResponse{Error: &s})
		return
	}

	// Get the fields set in the filter
	queryFields, setFields := httputil.GetURLFields(c.Request.URL, filter)

	q := models.DB.
		Order("purchase_orders.created_at DESC").
		Where(filter.model(), queryFields...)

	if filter.Status != "" {
		if !filter.Status.Valid() {
			s := errStatusInvalid.Error()
			c.JSON(http.StatusBadRequest, PurchaseOrderListResponse{Error: &s})
			return
		}

		q = q.Where("purchase_orders.status = ?", filter.Status)
	}

	if filter.ApprovedByID != ez_uuid.Nil {
		q = q.Where("purchase_orders.approved_by_id = ?", filter.ApprovedByID.UUID)
	}

	q = q.Offset(int(filter.Offset))

	// Default to 50 orders and set the limit
	limit := 50
	if slices.Contains(setFields, "Limit") {
		limit = filter.Limit
	}
	q = q.Limit(limit)

	var orders []models.PurchaseOrder
	err := q.Preload("Items").Find(&orders).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), PurchaseOrderListResponse{Error: &e})
		return
	}

	var count int64
	err = q.Limit(-1).Offset(-1).Count(&count).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), PurchaseOrderListResponse{Error: &e})
		return
	}

	data := make([]PurchaseOrder, 0)
	for _, order := range orders {
		total := decimal.Zero
		for _, item := range order.Items {
			total = total.Add(item.Price)
		}

		data = append(data, newPurchaseOrder(c, order, total))
	}

	c.JSON(http.StatusOK, PurchaseOrderListResponse{
		Data: data,
		Pagination: &Pagination{
			Count:  len(data),
			Total:  count,
			Offset: filter.Offset,
			Limit:  limit,
		},
	})
}

// @Summary		Update purchase order
// @Description	Updates editable fields of an order that has not been decided on
// @Tags			PurchaseOrders
// @Produce		json
// @Success		200		{object}	PurchaseOrderResponse
// @Failure		400		{object}	PurchaseOrderResponse
// @Failure		404		{object}	PurchaseOrderResponse
// @Failure		409		{object}	PurchaseOrderResponse
// @Param			id		path		URIID					true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Param			order	body		PurchaseOrderUpdateable	true	"Purchase order"
// @Router			/v1/purchase-orders/{id} [patch]
func UpdatePurchaseOrder(c *gin.Context) {
	order, ok := getPurchaseOrder(c)
	if !ok {
		return
	}

	if !order.Status.Editable() {
		e := models.ErrOrderState.Error()
		c.JSON(http.StatusConflict, PurchaseOrderResponse{Error: &e})
		return
	}

	updateFields, err := httputil.GetBodyFields(c, PurchaseOrderUpdateable{})
	if err != nil {
		e := err.Error()
		c.JSON(http.StatusBadRequest, PurchaseOrderResponse{Error: &e})
		return
	}

	var data PurchaseOrderUpdateable
	err = c.ShouldBindJSON(&data)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), PurchaseOrderResponse{Error: &e})
		return
	}

	err = models.DB.Model(&order).Select("", updateFields...).Updates(models.PurchaseOrder{
		VendorID:    data.VendorID,
		Description: data.Description,
	}).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), PurchaseOrderResponse{Error: &e})
		return
	}

	respondPurchaseOrder(c, order)
}

// @Summary		Delete purchase order
// @Description	Deletes a purchase order. Only orders in Draft can be deleted.
// @Tags			PurchaseOrders
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Failure		409	{object}	httpError
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/purchase-orders/{id} [delete]
func DeletePurchaseOrder(c *gin.Context) {
	order, ok := getPurchaseOrder(c)
	if !ok {
		return
	}

	err := order.Delete()
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

// @Summary		Add purchase order item
// @Description	Appends a line item to an order that has not been decided on
// @Tags			PurchaseOrders
// @Produce		json
// @Success		201		{object}	PurchaseOrderItemResponse
// @Failure		400		{object}	PurchaseOrderItemResponse
// @Failure		404		{object}	PurchaseOrderItemResponse
// @Failure		409		{object}	PurchaseOrderItemResponse
// @Param			id		path		URIID						true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Param			item	body		PurchaseOrderItemEditable	true	"Item"
// @Router			/v1/purchase-orders/{id}/items [post]
func CreatePurchaseOrderItem(c *gin.Context) {
	order, ok := getPurchaseOrder(c)
	if !ok {
		return
	}

	var editable PurchaseOrderItemEditable
	err := c.ShouldBindJSON(&editable)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), PurchaseOrderItemResponse{Error: &e})
		return
	}

	item := models.PurchaseOrderItem{
		Name:     editable.Name,
		Category: editable.Category,
		Price:    editable.Price,
	}

	err = order.AddItem(&item)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), PurchaseOrderItemResponse{Error: &e})
		return
	}

	c.JSON(http.StatusCreated, PurchaseOrderItemResponse{Data: &item})
}

// @Summary		Submit purchase order
// @Description	Moves the order from Draft to PendingApproval
// @Tags			PurchaseOrders
// @Produce		json
// @Success		200	{object}	PurchaseOrderResponse
// @Failure		404	{object}	PurchaseOrderResponse
// @Failure		409	{object}	PurchaseOrderResponse
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/purchase-orders/{id}/submit [post]
func SubmitPurchaseOrder(c *gin.Context) {
	order, ok := getPurchaseOrder(c)
	if !ok {
		return
	}

	err := order.Submit()
	if err != nil {
		e := err.Error()
		c.JSON(status(err), PurchaseOrderResponse{Error: &e})
		return
	}

	respondPurchaseOrder(c, order)
}

// @Summary		Approve purchase order
// @Description	Books the order total against the task budget and marks the order approved. Requires an authenticated approver.
// @Tags			PurchaseOrders
// @Produce		json
// @Success		200	{object}	PurchaseOrderApprovalResponse
// @Failure		401	{object}	httpError
// @Failure		403	{object}	PurchaseOrderApprovalResponse
// @Failure		404	{object}	PurchaseOrderApprovalResponse
// @Failure		409	{object}	PurchaseOrderApprovalResponse
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/purchase-orders/{id}/approve [post]
func ApprovePurchaseOrder(c *gin.Context) {
	order, ok := getPurchaseOrder(c)
	if !ok {
		return
	}

	approver, ok := auth.Principal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, httpError{Error: errApproverRequired.Error()})
		return
	}

	transaction, err := order.Approve(approver)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), PurchaseOrderApprovalResponse{Error: &e})
		return
	}

	total, err := order.TotalAmount(models.DB)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), PurchaseOrderApprovalResponse{Error: &e})
		return
	}

	data := newPurchaseOrder(c, order, total)
	c.JSON(http.StatusOK, PurchaseOrderApprovalResponse{
		Data:        &data,
		Transaction: transaction,
	})
}

// @Summary		Reject purchase order
// @Description	Marks the order as rejected with no budget effect. Requires an authenticated approver.
// @Tags			PurchaseOrders
// @Produce		json
// @Success		200		{object}	PurchaseOrderResponse
// @Failure		401		{object}	httpError
// @Failure		403		{object}	PurchaseOrderResponse
// @Failure		404		{object}	PurchaseOrderResponse
// @Failure		409		{object}	PurchaseOrderResponse
// @Param			id		path		URIID				true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Param			reason	body		RejectionRequest	false	"Rejection reason"
// @Router			/v1/purchase-orders/{id}/reject [post]
func RejectPurchaseOrder(c *gin.Context) {
	order, ok := getPurchaseOrder(c)
	if !ok {
		return
	}

	approver, ok := auth.Principal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, httpError{Error: errApproverRequired.Error()})
		return
	}

	var rejection RejectionRequest
	// The body is optional, a rejection does not need a reason
	_ = c.ShouldBindJSON(&rejection)

	err := order.Reject(approver, rejection.Reason)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), PurchaseOrderResponse{Error: &e})
		return
	}

	respondPurchaseOrder(c, order)
}

// @Summary		Fulfill purchase order
// @Description	Moves an approved order through its fulfillment states (Delivered, Paid). No budget effect.
// @Tags			PurchaseOrders
// @Produce		json
// @Success		200			{object}	PurchaseOrderResponse
// @Failure		400			{object}	PurchaseOrderResponse
// @Failure		404			{object}	PurchaseOrderResponse
// @Failure		409			{object}	PurchaseOrderResponse
// @Param			id			path		URIID				true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Param			fulfillment	body		FulfillmentRequest	true	"Fulfillment status"
// @Router			/v1/purchase-orders/{id}/fulfill [post]
func FulfillPurchaseOrder(c *gin.Context) {
	order, ok := getPurchaseOrder(c)
	if !ok {
		return
	}

	var fulfillment FulfillmentRequest
	err := c.ShouldBindJSON(&fulfillment)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), PurchaseOrderResponse{Error: &e})
		return
	}

	err = order.Fulfill(fulfillment.Status)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), PurchaseOrderResponse{Error: &e})
		return
	}

	respondPurchaseOrder(c, order)
}

// getPurchaseOrderItem is the shared load-by-URI helper for item routes.
// Whether the owning order still accepts item changes is checked by the
// model inside the write transaction.
func getPurchaseOrderItem(c *gin.Context) (models.PurchaseOrderItem, bool) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), PurchaseOrderItemResponse{Error: &e})
		return models.PurchaseOrderItem{}, false
	}

	var item models.PurchaseOrderItem
	err = models.DB.First(&item, "id = ?", uri.ID.UUID).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), PurchaseOrderItemResponse{Error: &e})
		return models.PurchaseOrderItem{}, false
	}

	return item, true
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			PurchaseOrders
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/purchase-order-items/{id} [options]
func OptionsPurchaseOrderItemDetail(c *gin.Context) {
	_, ok := getPurchaseOrderItem(c)
	if !ok {
		return
	}

	httputil.OptionsPatchDelete(c)
}

// @Summary		Update purchase order item
// @Description	Updates a line item of an order that has not been decided on
// @Tags			PurchaseOrders
// @Produce		json
// @Success		200		{object}	PurchaseOrderItemResponse
// @Failure		400		{object}	PurchaseOrderItemResponse
// @Failure		404		{object}	PurchaseOrderItemResponse
// @Failure		409		{object}	PurchaseOrderItemResponse
// @Param			id		path		URIID							true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Param			item	body		PurchaseOrderItemUpdateable	true	"Item"
// @Router			/v1/purchase-order-items/{id} [patch]
func UpdatePurchaseOrderItem(c *gin.Context) {
	item, ok := getPurchaseOrderItem(c)
	if !ok {
		return
	}

	updateFields, err := httputil.GetBodyFields(c, PurchaseOrderItemUpdateable{})
	if err != nil {
		e := err.Error()
		c.JSON(http.StatusBadRequest, PurchaseOrderItemResponse{Error: &e})
		return
	}

	var updateable PurchaseOrderItemUpdateable
	err = c.ShouldBindJSON(&updateable)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), PurchaseOrderItemResponse{Error: &e})
		return
	}

	err = item.Update(updateFields, models.PurchaseOrderItem{
		Name:     updateable.Name,
		Category: updateable.Category,
		Price:    updateable.Price,
	})
	if err != nil {
		e := err.Error()
		c.JSON(status(err), PurchaseOrderItemResponse{Error: &e})
		return
	}

	c.JSON(http.StatusOK, PurchaseOrderItemResponse{Data: &item})
}

// @Summary		Delete purchase order item
// @Description	Removes a line item of an order that has not been decided on
// @Tags			PurchaseOrders
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Failure		409	{object}	httpError
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/purchase-order-items/{id} [delete]
func DeletePurchaseOrderItem(c *gin.Context) {
	item, ok := getPurchaseOrderItem(c)
	if !ok {
		return
	}

	err := item.Delete()
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}
