package v1_test

import (
	"fmt"
	"net/http"
	"time"

	v1 "github.com/buildledger/backend/internal/controllers/v1"
	"github.com/buildledger/backend/internal/models"
	"github.com/buildledger/backend/test"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func (suite *TestSuiteEnv) createTestPurchaseOrder(order v1.PurchaseOrderEditable, prices ...string) v1.PurchaseOrderResponse {
	r := test.Request(suite.T(), http.MethodPost, "/v1/purchase-orders", order)
	test.AssertHTTPStatus(suite.T(), &r, http.StatusCreated)

	var response v1.PurchaseOrderResponse
	test.DecodeResponse(suite.T(), &r, &response)

	for _, price := range prices {
		item := v1.PurchaseOrderItemEditable{
			Name:     "Rebar B500B 12mm",
			Category: models.CategoryMaterial,
			Price:    decimal.RequireFromString(price),
		}

		r = test.Request(suite.T(), http.MethodPost, response.Data.Links.Items, item)
		test.AssertHTTPStatus(suite.T(), &r, http.StatusCreated)
	}

	return response
}

func (suite *TestSuiteEnv) TestOptionsPurchaseOrders() {
	r := test.Request(suite.T(), http.MethodOptions, "/v1/purchase-orders", "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusNoContent)
	assert.Equal(suite.T(), "GET, POST", r.Header().Get("allow"))
}

func (suite *TestSuiteEnv) TestCreatePurchaseOrder() {
	task := suite.createTestTask("10000.00")
	vendor := suite.createTestVendor("Hochtief Supplies GmbH")
	clerk := suite.createTestUser(models.RoleClerk)

	response := suite.createTestPurchaseOrder(v1.PurchaseOrderEditable{
		TaskID:      task.ID,
		VendorID:    vendor.ID,
		Description: "Rebar delivery for foundation",
		CreatedByID: clerk.ID,
	})

	assert.Equal(suite.T(), models.StatusDraft, response.Data.Status)
	assert.Equal(suite.T(), fmt.Sprintf("PO-%d-001", time.Now().UTC().Year()), response.Data.Number)
	assert.Equal(suite.T(), "http://example.com/v1/purchase-orders/"+response.Data.ID.String(), response.Data.Links.Self)
}

func (suite *TestSuiteEnv) TestCreatePurchaseOrderMissingFields() {
	r := test.Request(suite.T(), http.MethodPost, "/v1/purchase-orders", `{ "description": "no task, no vendor" }`)
	test.AssertHTTPStatus(suite.T(), &r, http.StatusBadRequest)
}

func (suite *TestSuiteEnv) TestCreatePurchaseOrderUnknownVendor() {
	task := suite.createTestTask("10000.00")
	clerk := suite.createTestUser(models.RoleClerk)

	r := test.Request(suite.T(), http.MethodPost, "/v1/purchase-orders", v1.PurchaseOrderEditable{
		TaskID:      task.ID,
		VendorID:    uuid.New(),
		CreatedByID: clerk.ID,
	})
	test.AssertHTTPStatus(suite.T(), &r, http.StatusNotFound)
}

func (suite *TestSuiteEnv) TestGetPurchaseOrderInvalidID() {
	r := test.Request(suite.T(), http.MethodGet, "/v1/purchase-orders/not-a-uuid", "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusBadRequest)
}

func (suite *TestSuiteEnv) TestGetPurchaseOrderNotFound() {
	r := test.Request(suite.T(), http.MethodGet, fmt.Sprintf("/v1/purchase-orders/%s", uuid.New()), "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusNotFound)
}

func (suite *TestSuiteEnv) TestGetPurchaseOrders() {
	task := suite.createTestTask("10000.00")
	vendor := suite.createTestVendor("Hochtief Supplies GmbH")
	clerk := suite.createTestUser(models.RoleClerk)

	order := v1.PurchaseOrderEditable{TaskID: task.ID, VendorID: vendor.ID, CreatedByID: clerk.ID}
	_ = suite.createTestPurchaseOrder(order, "1200.00")
	_ = suite.createTestPurchaseOrder(order)

	r := test.Request(suite.T(), http.MethodGet, "/v1/purchase-orders", "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var response v1.PurchaseOrderListResponse
	test.DecodeResponse(suite.T(), &r, &response)

	assert.Len(suite.T(), response.Data, 2)
	assert.Equal(suite.T(), int64(2), response.Pagination.Total)
}

func (suite *TestSuiteEnv) TestGetPurchaseOrdersFilterStatus() {
	task := suite.createTestTask("10000.00")
	vendor := suite.createTestVendor("Hochtief Supplies GmbH")
	clerk := suite.createTestUser(models.RoleClerk)

	order := v1.PurchaseOrderEditable{TaskID: task.ID, VendorID: vendor.ID, CreatedByID: clerk.ID}
	created := suite.createTestPurchaseOrder(order, "1200.00")
	_ = suite.createTestPurchaseOrder(order)

	r := test.Request(suite.T(), http.MethodPost, created.Data.Links.Self+"/submit", "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	tests := []struct {
		query string
		count int
	}{
		{"status=Draft", 1},
		{"status=PendingApproval", 1},
		{"status=Approved", 0},
		{fmt.Sprintf("task=%s", task.ID), 2},
		{fmt.Sprintf("vendor=%s", vendor.ID), 2},
		{fmt.Sprintf("createdBy=%s", clerk.ID), 2},
		{"limit=1", 1},
	}

	for _, tt := range tests {
		r := test.Request(suite.T(), http.MethodGet, "/v1/purchase-orders?"+tt.query, "")
		test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

		var response v1.PurchaseOrderListResponse
		test.DecodeResponse(suite.T(), &r, &response)
		assert.Len(suite.T(), response.Data, tt.count, "query %q", tt.query)
	}
}

func (suite *TestSuiteEnv) TestGetPurchaseOrdersInvalidStatus() {
	r := test.Request(suite.T(), http.MethodGet, "/v1/purchase-orders?status=Cancelled", "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusBadRequest)
}

func (suite *TestSuiteEnv) TestUpdatePurchaseOrder() {
	task := suite.createTestTask("10000.00")
	vendor := suite.createTestVendor("Hochtief Supplies GmbH")
	clerk := suite.createTestUser(models.RoleClerk)

	response := suite.createTestPurchaseOrder(v1.PurchaseOrderEditable{
		TaskID:      task.ID,
		VendorID:    vendor.ID,
		Description: "Rebar delivery for foundation",
		CreatedByID: clerk.ID,
	})

	r := test.Request(suite.T(), http.MethodPatch, response.Data.Links.Self, `{ "description": "Rebar, second batch" }`)
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var updated v1.PurchaseOrderResponse
	test.DecodeResponse(suite.T(), &r, &updated)
	assert.Equal(suite.T(), "Rebar, second batch", updated.Data.Description)
}

func (suite *TestSuiteEnv) TestPurchaseOrderLifecycle() {
	task := suite.createTestTask("10000.00")
	vendor := suite.createTestVendor("Hochtief Supplies GmbH")
	clerk := suite.createTestUser(models.RoleClerk)
	accountant := suite.createTestUser(models.RoleAccountant)

	response := suite.createTestPurchaseOrder(v1.PurchaseOrderEditable{
		TaskID:      task.ID,
		VendorID:    vendor.ID,
		Description: "Rebar delivery for foundation",
		CreatedByID: clerk.ID,
	}, "1200.00", "300.50")

	self := response.Data.Links.Self

	r := test.Request(suite.T(), http.MethodPost, self+"/submit", "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	r = test.Request(suite.T(), http.MethodPost, self+"/approve", "", suite.authHeader(accountant))
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var approval v1.PurchaseOrderApprovalResponse
	test.DecodeResponse(suite.T(), &r, &approval)

	assert.Equal(suite.T(), models.StatusApproved, approval.Data.Status)
	assert.True(suite.T(), approval.Data.TotalAmount.Equal(decimal.RequireFromString("1500.50")))

	assert.NotNil(suite.T(), approval.Transaction)
	assert.Equal(suite.T(), models.ImpactDecrease, approval.Transaction.Impact)
	assert.True(suite.T(), approval.Transaction.Amount.Equal(decimal.RequireFromString("1500.50")))
	assert.True(suite.T(), approval.Transaction.BudgetAfter.Equal(decimal.RequireFromString("8499.50")))

	// Move through fulfillment
	r = test.Request(suite.T(), http.MethodPost, self+"/fulfill", `{ "status": "Delivered" }`)
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	r = test.Request(suite.T(), http.MethodPost, self+"/fulfill", `{ "status": "Paid" }`)
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var final v1.PurchaseOrderResponse
	test.DecodeResponse(suite.T(), &r, &final)
	assert.Equal(suite.T(), models.StatusPaid, final.Data.Status)
}

func (suite *TestSuiteEnv) TestApprovePurchaseOrderRequiresAuth() {
	task := suite.createTestTask("10000.00")
	vendor := suite.createTestVendor("Hochtief Supplies GmbH")
	clerk := suite.createTestUser(models.RoleClerk)

	response := suite.createTestPurchaseOrder(v1.PurchaseOrderEditable{
		TaskID: task.ID, VendorID: vendor.ID, CreatedByID: clerk.ID,
	}, "100.00")

	r := test.Request(suite.T(), http.MethodPost, response.Data.Links.Self+"/submit", "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	// No token
	r = test.Request(suite.T(), http.MethodPost, response.Data.Links.Self+"/approve", "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusUnauthorized)

	// Garbage token
	r = test.Request(suite.T(), http.MethodPost, response.Data.Links.Self+"/approve", "", map[string]string{"Authorization": "Bearer garbage"})
	test.AssertHTTPStatus(suite.T(), &r, http.StatusUnauthorized)

	// Valid token, but the role may not approve
	r = test.Request(suite.T(), http.MethodPost, response.Data.Links.Self+"/approve", "", suite.authHeader(clerk))
	test.AssertHTTPStatus(suite.T(), &r, http.StatusForbidden)
}

func (suite *TestSuiteEnv) TestApprovePurchaseOrderTwice() {
	task := suite.createTestTask("10000.00")
	vendor := suite.createTestVendor("Hochtief Supplies GmbH")
	clerk := suite.createTestUser(models.RoleClerk)
	accountant := suite.createTestUser(models.RoleAccountant)

	response := suite.createTestPurchaseOrder(v1.PurchaseOrderEditable{
		TaskID: task.ID, VendorID: vendor.ID, CreatedByID: clerk.ID,
	}, "100.00")

	r := test.Request(suite.T(), http.MethodPost, response.Data.Links.Self+"/submit", "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	r = test.Request(suite.T(), http.MethodPost, response.Data.Links.Self+"/approve", "", suite.authHeader(accountant))
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	r = test.Request(suite.T(), http.MethodPost, response.Data.Links.Self+"/approve", "", suite.authHeader(accountant))
	test.AssertHTTPStatus(suite.T(), &r, http.StatusConflict)
}

func (suite *TestSuiteEnv) TestRejectPurchaseOrder() {
	task := suite.createTestTask("10000.00")
	vendor := suite.createTestVendor("Hochtief Supplies GmbH")
	clerk := suite.createTestUser(models.RoleClerk)
	accountant := suite.createTestUser(models.RoleAccountant)

	response := suite.createTestPurchaseOrder(v1.PurchaseOrderEditable{
		TaskID: task.ID, VendorID: vendor.ID, CreatedByID: clerk.ID,
	}, "100.00")

	// Rejecting a draft is a state machine violation
	r := test.Request(suite.T(), http.MethodPost, response.Data.Links.Self+"/reject", "", suite.authHeader(accountant))
	test.AssertHTTPStatus(suite.T(), &r, http.StatusConflict)

	r = test.Request(suite.T(), http.MethodPost, response.Data.Links.Self+"/submit", "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	r = test.Request(suite.T(), http.MethodPost, response.Data.Links.Self+"/reject", `{ "reason": "Quote from a cheaper vendor pending" }`, suite.authHeader(accountant))
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var rejected v1.PurchaseOrderResponse
	test.DecodeResponse(suite.T(), &r, &rejected)
	assert.Equal(suite.T(), models.StatusRejected, rejected.Data.Status)
	assert.Equal(suite.T(), "Quote from a cheaper vendor pending", rejected.Data.RejectionReason)
}

func (suite *TestSuiteEnv) TestPurchaseOrderItemUpdateAndDelete() {
	task := suite.createTestTask("10000.00")
	vendor := suite.createTestVendor("Hochtief Supplies GmbH")
	clerk := suite.createTestUser(models.RoleClerk)

	response := suite.createTestPurchaseOrder(v1.PurchaseOrderEditable{
		TaskID: task.ID, VendorID: vendor.ID, CreatedByID: clerk.ID,
	}, "100.00")

	r := test.Request(suite.T(), http.MethodGet, response.Data.Links.Self, "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var order v1.PurchaseOrderResponse
	test.DecodeResponse(suite.T(), &r, &order)
	itemURL := fmt.Sprintf("/v1/purchase-order-items/%s", order.Data.Items[0].ID)

	r = test.Request(suite.T(), http.MethodPatch, itemURL, `{ "price": "150.00" }`)
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var item v1.PurchaseOrderItemResponse
	test.DecodeResponse(suite.T(), &r, &item)
	assert.True(suite.T(), item.Data.Price.Equal(decimal.RequireFromString("150.00")))

	r = test.Request(suite.T(), http.MethodDelete, itemURL, "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusNoContent)
}

func (suite *TestSuiteEnv) TestPurchaseOrderItemInvalid() {
	task := suite.createTestTask("10000.00")
	vendor := suite.createTestVendor("Hochtief Supplies GmbH")
	clerk := suite.createTestUser(models.RoleClerk)

	response := suite.createTestPurchaseOrder(v1.PurchaseOrderEditable{
		TaskID: task.ID, VendorID: vendor.ID, CreatedByID: clerk.ID,
	})

	r := test.Request(suite.T(), http.MethodPost, response.Data.Links.Items, `{ "name": "Free gravel", "category": "Material", "price": "0" }`)
	test.AssertHTTPStatus(suite.T(), &r, http.StatusBadRequest)

	r = test.Request(suite.T(), http.MethodPost, response.Data.Links.Items, `{ "name": "Gravel", "category": "Misc", "price": "10.00" }`)
	test.AssertHTTPStatus(suite.T(), &r, http.StatusBadRequest)
}

func (suite *TestSuiteEnv) TestDeletePurchaseOrder() {
	task := suite.createTestTask("10000.00")
	vendor := suite.createTestVendor("Hochtief Supplies GmbH")
	clerk := suite.createTestUser(models.RoleClerk)

	response := suite.createTestPurchaseOrder(v1.PurchaseOrderEditable{
		TaskID: task.ID, VendorID: vendor.ID, CreatedByID: clerk.ID,
	})

	r := test.Request(suite.T(), http.MethodDelete, response.Data.Links.Self, "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusNoContent)

	// Submitted orders are part of the audit trail
	submitted := suite.createTestPurchaseOrder(v1.PurchaseOrderEditable{
		TaskID: task.ID, VendorID: vendor.ID, CreatedByID: clerk.ID,
	})

	r = test.Request(suite.T(), http.MethodPost, submitted.Data.Links.Self+"/submit", "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	r = test.Request(suite.T(), http.MethodDelete, submitted.Data.Links.Self, "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusConflict)
}
