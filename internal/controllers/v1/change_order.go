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

// RegisterChangeOrderRoutes registers the routes for change orders with
// the RouterGroup that is passed.
func RegisterChangeOrderRoutes(r *gin.RouterGroup) {
	// Root group
	{
		r.OPTIONS("", OptionsChangeOrders)
		r.GET("", GetChangeOrders)
		r.POST("", CreateChangeOrder)
	}

	// Change order with ID
	{
		r.OPTIONS("/:id", OptionsChangeOrderDetail)
		r.GET("/:id", GetChangeOrder)
		r.PATCH("/:id", UpdateChangeOrder)
		r.DELETE("/:id", DeleteChangeOrder)
	}

	// Lifecycle
	{
		r.GET("/:id/total-impact", GetChangeOrderTotalImpact)
		r.POST("/:id/items", CreateChangeOrderItem)
		r.POST("/:id/submit", SubmitChangeOrder)
		r.POST("/:id/approve", auth.Middleware(), ApproveChangeOrder)
		r.POST("/:id/reject", auth.Middleware(), RejectChangeOrder)
		r.POST("/:id/fulfill", FulfillChangeOrder)
	}
}

// RegisterChangeOrderItemRoutes registers the routes for individual
// change order items.
func RegisterChangeOrderItemRoutes(r *gin.RouterGroup) {
	r.OPTIONS("/:id", OptionsChangeOrderItemDetail)
	r.PATCH("/:id", UpdateChangeOrderItem)
	r.DELETE("/:id", DeleteChangeOrderItem)
}

// getChangeOrder is the shared load-by-URI helper for all detail routes.
func getChangeOrder(c *gin.Context) (models.ChangeOrder, bool) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), ChangeOrderResponse{Error: &e})
		return models.ChangeOrder{}, false
	}

	var order models.ChangeOrder
	err = models.DB.Preload("Items").First(&order, "id = ?", uri.ID.UUID).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), ChangeOrderResponse{Error: &e})
		return models.ChangeOrder{}, false
	}

	return order, true
}

// respondChangeOrder re-reads the order and writes it as response.
func respondChangeOrder(c *gin.Context, order models.ChangeOrder) {
	err := models.DB.Preload("Items").First(&order, "id = ?", order.ID).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), ChangeOrderResponse{Error: &e})
		return
	}

	net, err := order.NetImpact(models.DB)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), ChangeOrderResponse{Error: &e})
		return
	}

	data := newChangeOrder(c, order, net)
	c.JSON(http.StatusOK, ChangeOrderResponse{Data: &data})
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			ChangeOrders
// @Success		204
// @Router			/v1/change-orders [options]
func OptionsChangeOrders(c *gin.Context) {
	httputil.OptionsGetPost(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			ChangeOrders
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/change-orders/{id} [options]
func OptionsChangeOrderDetail(c *gin.Context) {
	_, ok := getChangeOrder(c)
	if !ok {
		return
	}

	httputil.OptionsGetPatchDelete(c)
}

// @Summary		Create change order
// @Description	Creates a new change order in Draft and stamps its number
// @Tags			ChangeOrders
// @Produce		json
// @Success		201		{object}	ChangeOrderResponse
// @Failure		400		{object}	ChangeOrderResponse
// @Failure		404		{object}	ChangeOrderResponse
// @Failure		500		{object}	ChangeOrderResponse
// @Param			order	body		ChangeOrderEditable	true	"Change order"
// @Router			/v1/change-orders [post]
func CreateChangeOrder(c *gin.Context) {
	var editable ChangeOrderEditable
	err := c.ShouldBindJSON(&editable)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), ChangeOrderResponse{Error: &e})
		return
	}

	order := editable.model()
	err = models.CreateChangeOrder(&order)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), ChangeOrderResponse{Error: &e})
		return
	}

	data := newChangeOrder(c, order, decimal.Zero)
	c.JSON(http.StatusCreated, ChangeOrderResponse{Data: &data})
}

// @Summary		Get change order
// @Description	Returns a specific change order
// @Tags			ChangeOrders
// @Produce		json
// @Success		200	{object}	ChangeOrderResponse
// @Failure		400	{object}	ChangeOrderResponse
// @Failure		404	{object}	ChangeOrderResponse
// @Failure		500	{object}	ChangeOrderResponse
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/change-orders/{id} [get]
func GetChangeOrder(c *gin.Context) {
	order, ok := getChangeOrder(c)
	if !ok {
		return
	}

	respondChangeOrder(c, order)
}

// @Summary		Get change orders
// @Description	Returns a list of change orders
// @Tags			ChangeOrders
// @Produce		json
// @Success		200	{object}	ChangeOrderListResponse
// @Failure		400	{object}	ChangeOrderListResponse
// @Failure		500	{object}	ChangeOrderListResponse
// @Router			/v1/change-orders [get]
// @Param			status		query	string	false	"Filter by order status"
// @Param			task		query	string	false	"Filter by task ID"
// @Param			createdBy	query	string	false	"Filter by creating user ID"
// @Param			approvedBy	query	string	false	"Filter by approving user ID"
// @Param			offset		query	uint	false	"The offset of the first order returned. Defaults to 0."
// @Param			limit		query	int		false	"Maximum number of orders to return. Defaults to 50."
func GetChangeOrders(c *gin.Context) {
	var filter ChangeOrderQueryFilter
	if err := c.Bind(&filter); err != nil {
		s := err.Error()
		c.JSON(http.StatusBadRequest, ChangeOrderListResponse{Error: &s})
		return
	}

	// Get the fields set in the filter
	queryFields, setFields := httputil.GetURLFields(c.Request.URL, filter)

	q := models.DB.
		Order("change_orders.created_at DESC").
		Where(filter.model(), queryFields...)

	if filter.Status != "" {
		if !filter.Status.Valid() {
			s := errStatusInvalid.Error()
			c.JSON(http.StatusBadRequest, ChangeOrderListResponse{Error: &s})
			return
		}

		q = q.Where("change_orders.status = ?", filter.Status)
	}

	if filter.ApprovedByID != ez_uuid.Nil {
		q = q.Where("change_orders.approved_by_id = ?", filter.ApprovedByID.UUID)
	}

	q = q.Offset(int(filter.Offset))

	// Default to 50 orders and set the limit
	limit := 50
	if slices.Contains(setFields, "Limit") {
		limit = filter.Limit
	}
	q = q.Limit(limit)

	var orders []models.ChangeOrder
	err := q.Preload("Items").Find(&orders).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), ChangeOrderListResponse{Error: &e})
		return
	}

	var count int64
	err = q.Limit(-1).Offset(-1).Count(&count).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), ChangeOrderListResponse{Error: &e})
		return
	}

	data := make([]ChangeOrder, 0)
	for _, order := range orders {
		net := decimal.Zero
		for _, item := range order.Items {
			net = net.Add(item.SignedAmount())
		}

		data = append(data, newChangeOrder(c, order, net))
	}

	c.JSON(http.StatusOK, ChangeOrderListResponse{
		Data: data,
		Pagination: &Pagination{
			Count:  len(data),
			Total:  count,
			Offset: filter.Offset,
			Limit:  limit,
		},
	})
}

// @Summary		Update change order
// @Description	Updates editable fields of an order that has not been decided on
// @Tags			ChangeOrders
// @Produce		json
// @Success		200		{object}	ChangeOrderResponse
// @Failure		400		{object}	ChangeOrderResponse
// @Failure		404		{object}	ChangeOrderResponse
// @Failure		409		{object}	ChangeOrderResponse
// @Param			id		path		URIID					true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Param			order	body		ChangeOrderUpdateable	true	"Change order"
// @Router			/v1/change-orders/{id} [patch]
func UpdateChangeOrder(c *gin.Context) {
	order, ok := getChangeOrder(c)
	if !ok {
		return
	}

	if !order.Status.Editable() {
		e := models.ErrOrderState.Error()
		c.JSON(http.StatusConflict, ChangeOrderResponse{Error: &e})
		return
	}

	updateFields, err := httputil.GetBodyFields(c, ChangeOrderUpdateable{})
	if err != nil {
		e := err.Error()
		c.JSON(http.StatusBadRequest, ChangeOrderResponse{Error: &e})
		return
	}

	var data ChangeOrderUpdateable
	err = c.ShouldBindJSON(&data)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), ChangeOrderResponse{Error: &e})
		return
	}

	err = models.DB.Model(&order).Select("", updateFields...).Updates(models.ChangeOrder{
		Title:       data.Title,
		Description: data.Description,
		Reason:      data.Reason,
	}).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), ChangeOrderResponse{Error: &e})
		return
	}

	respondChangeOrder(c, order)
}

// @Summary		Delete change order
// @Description	Deletes a change order. Only orders in Draft can be deleted.
// @Tags			ChangeOrders
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Failure		409	{object}	httpError
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/change-orders/{id} [delete]
func DeleteChangeOrder(c *gin.Context) {
	order, ok := getChangeOrder(c)
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

// @Summary		Get total impact
// @Description	Returns the net financial impact of the change order, the signed sum of all its items
// @Tags			ChangeOrders
// @Produce		json
// @Success		200	{object}	TotalImpactResponse
// @Failure		400	{object}	TotalImpactResponse
// @Failure		404	{object}	TotalImpactResponse
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/change-orders/{id}/total-impact [get]
func GetChangeOrderTotalImpact(c *gin.Context) {
	order, ok := getChangeOrder(c)
	if !ok {
		return
	}

	net, err := order.NetImpact(models.DB)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), TotalImpactResponse{Error: &e})
		return
	}

	c.JSON(http.StatusOK, TotalImpactResponse{Data: &net})
}

// @Summary		Add change order item
// @Description	Appends a signed line item to an order that has not been decided on
// @Tags			ChangeOrders
// @Produce		json
// @Success		201		{object}	ChangeOrderItemResponse
// @Failure		400		{object}	ChangeOrderItemResponse
// @Failure		404		{object}	ChangeOrderItemResponse
// @Failure		409		{object}	ChangeOrderItemResponse
// @Param			id		path		URIID					true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Param			item	body		ChangeOrderItemEditable	true	"Item"
// @Router			/v1/change-orders/{id}/items [post]
func CreateChangeOrderItem(c *gin.Context) {
	order, ok := getChangeOrder(c)
	if !ok {
		return
	}

	var editable ChangeOrderItemEditable
	err := c.ShouldBindJSON(&editable)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), ChangeOrderItemResponse{Error: &e})
		return
	}

	item := models.ChangeOrderItem{
		Name:       editable.Name,
		ChangeType: editable.ChangeType,
		Impact:     editable.Impact,
		Amount:     editable.Amount,
	}

	err = order.AddItem(&item)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), ChangeOrderItemResponse{Error: &e})
		return
	}

	c.JSON(http.StatusCreated, ChangeOrderItemResponse{Data: &item})
}

// @Summary		Submit change order
// @Description	Moves the order from Draft to PendingApproval
// @Tags			ChangeOrders
// @Produce		json
// @Success		200	{object}	ChangeOrderResponse
// @Failure		404	{object}	ChangeOrderResponse
// @Failure		409	{object}	ChangeOrderResponse
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/change-orders/{id}/submit [post]
func SubmitChangeOrder(c *gin.Context) {
	order, ok := getChangeOrder(c)
	if !ok {
		return
	}

	err := order.Submit()
	if err != nil {
		e := err.Error()
		c.JSON(status(err), ChangeOrderResponse{Error: &e})
		return
	}

	respondChangeOrder(c, order)
}

// @Summary		Approve change order
// @Description	Books the net impact against the task budget and marks the order approved. A net impact of zero approves the order without a ledger entry. Requires an authenticated approver.
// @Tags			ChangeOrders
// @Produce		json
// @Success		200	{object}	ChangeOrderApprovalResponse
// @Failure		401	{object}	httpError
// @Failure		403	{object}	ChangeOrderApprovalResponse
// @Failure		404	{object}	ChangeOrderApprovalResponse
// @Failure		409	{object}	ChangeOrderApprovalResponse
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/change-orders/{id}/approve [post]
func ApproveChangeOrder(c *gin.Context) {
	order, ok := getChangeOrder(c)
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
		c.JSON(status(err), ChangeOrderApprovalResponse{Error: &e})
		return
	}

	net, err := order.NetImpact(models.DB)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), ChangeOrderApprovalResponse{Error: &e})
		return
	}

	data := newChangeOrder(c, order, net)
	c.JSON(http.StatusOK, ChangeOrderApprovalResponse{
		Data:        &data,
		Transaction: transaction,
	})
}

// @Summary		Reject change order
// @Description	Marks the order as rejected with no budget effect. Requires an authenticated approver.
// @Tags			ChangeOrders
// @Produce		json
// @Success		200		{object}	ChangeOrderResponse
// @Failure		401		{object}	httpError
// @Failure		403		{object}	ChangeOrderResponse
// @Failure		404		{object}	ChangeOrderResponse
// @Failure		409		{object}	ChangeOrderResponse
// @Param			id		path		URIID				true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Param			reason	body		RejectionRequest	false	"Rejection reason"
// @Router			/v1/change-orders/{id}/reject [post]
func RejectChangeOrder(c *gin.Context) {
	order, ok := getChangeOrder(c)
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
		c.JSON(status(err), ChangeOrderResponse{Error: &e})
		return
	}

	respondChangeOrder(c, order)
}

// @Summary		Fulfill change order
// @Description	Moves an approved order to Implemented. No budget effect.
// @Tags			ChangeOrders
// @Produce		json
// @Success		200			{object}	ChangeOrderResponse
// @Failure		400			{object}	ChangeOrderResponse
// @Failure		404			{object}	ChangeOrderResponse
// @Failure		409			{object}	ChangeOrderResponse
// @Param			id			path		URIID				true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Param			fulfillment	body		FulfillmentRequest	true	"Fulfillment status"
// @Router			/v1/change-orders/{id}/fulfill [post]
func FulfillChangeOrder(c *gin.Context) {
	order, ok := getChangeOrder(c)
	if !ok {
		return
	}

	var fulfillment FulfillmentRequest
	err := c.ShouldBindJSON(&fulfillment)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), ChangeOrderResponse{Error: &e})
		return
	}

	err = order.Fulfill(fulfillment.Status)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), ChangeOrderResponse{Error: &e})
		return
	}

	respondChangeOrder(c, order)
}

// getChangeOrderItem is the shared load-by-URI helper for item routes.
// Whether the owning order still accepts item changes is checked by the
// model inside the write transaction.
func getChangeOrderItem(c *gin.Context) (models.ChangeOrderItem, bool) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), ChangeOrderItemResponse{Error: &e})
		return models.ChangeOrderItem{}, false
	}

	var item models.ChangeOrderItem
	err = models.DB.First(&item, "id = ?", uri.ID.UUID).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), ChangeOrderItemResponse{Error: &e})
		return models.ChangeOrderItem{}, false
	}

	return item, true
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			ChangeOrders
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/change-order-items/{id} [options]
func OptionsChangeOrderItemDetail(c *gin.Context) {
	_, ok := getChangeOrderItem(c)
	if !ok {
		return
	}

	httputil.OptionsPatchDelete(c)
}

// @Summary		Update change order item
// @Description	Updates a line item of an order that has not been decided on
// @Tags			ChangeOrders
// @Produce		json
// @Success		200		{object}	ChangeOrderItemResponse
// @Failure		400		{object}	ChangeOrderItemResponse
// @Failure		404		{object}	ChangeOrderItemResponse
// @Failure		409		{object}	ChangeOrderItemResponse
// @Param			id		path		URIID						true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Param			item	body		ChangeOrderItemUpdateable	true	"Item"
// @Router			/v1/change-order-items/{id} [patch]
func UpdateChangeOrderItem(c *gin.Context) {
	item, ok := getChangeOrderItem(c)
	if !ok {
		return
	}

	updateFields, err := httputil.GetBodyFields(c, ChangeOrderItemUpdateable{})
	if err != nil {
		e := err.Error()
		c.JSON(http.StatusBadRequest, ChangeOrderItemResponse{Error: &e})
		return
	}

	var updateable ChangeOrderItemUpdateable
	err = c.ShouldBindJSON(&updateable)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), ChangeOrderItemResponse{Error: &e})
		return
	}

	err = item.Update(updateFields, models.ChangeOrderItem{
		Name:       updateable.Name,
		ChangeType: updateable.ChangeType,
		Impact:     updateable.Impact,
		Amount:     updateable.Amount,
	})
	if err != nil {
		e := err.Error()
		c.JSON(status(err), ChangeOrderItemResponse{Error: &e})
		return
	}

	c.JSON(http.StatusOK, ChangeOrderItemResponse{Data: &item})
}

// @Summary		Delete change order item
// @Description	Removes a line item of an order that has not been decided on
// @Tags			ChangeOrders
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Failure		409	{object}	httpError
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/change-order-items/{id} [delete]
func DeleteChangeOrderItem(c *gin.Context) {
	item, ok := getChangeOrderItem(c)
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
