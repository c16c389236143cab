package v1_test

import (
	"fmt"
	"net/http"

	v1 "github.com/buildledger/backend/internal/controllers/v1"
	"github.com/buildledger/backend/internal/models"
	"github.com/buildledger/backend/test"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

// approveTestOrders creates and approves one purchase order and one change
// order against the same task and returns the task.
func (suite *TestSuiteEnv) approveTestOrders() models.Task {
	task := suite.createTestTask("10000.00")
	vendor := suite.createTestVendor("Hochtief Supplies GmbH")
	clerk := suite.createTestUser(models.RoleClerk)
	accountant := suite.createTestUser(models.RoleAccountant)

	po := suite.createTestPurchaseOrder(v1.PurchaseOrderEditable{
		TaskID: task.ID, VendorID: vendor.ID, CreatedByID: clerk.ID,
	}, "1200.00")

	co := suite.createTestChangeOrder(v1.ChangeOrderEditable{
		TaskID: task.ID, Title: "Additional drainage", CreatedByID: clerk.ID,
	}, "2000.00")

	for _, self := range []string{po.Data.Links.Self, co.Data.Links.Self} {
		r := test.Request(suite.T(), http.MethodPost, self+"/submit", "")
		test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

		r = test.Request(suite.T(), http.MethodPost, self+"/approve", "", suite.authHeader(accountant))
		test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)
	}

	return task
}

func (suite *TestSuiteEnv) TestOptionsTransactions() {
	r := test.Request(suite.T(), http.MethodOptions, "/v1/transactions", "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusNoContent)
	assert.Equal(suite.T(), "GET", r.Header().Get("allow"))
}

func (suite *TestSuiteEnv) TestGetTransactions() {
	_ = suite.approveTestOrders()

	r := test.Request(suite.T(), http.MethodGet, "/v1/transactions", "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var response v1.TransactionListResponse
	test.DecodeResponse(suite.T(), &r, &response)
	assert.Len(suite.T(), response.Data, 2)
}

func (suite *TestSuiteEnv) TestGetTransactionsFilters() {
	task := suite.approveTestOrders()

	tests := []struct {
		query string
		count int
	}{
		{fmt.Sprintf("task=%s", task.ID), 2},
		{fmt.Sprintf("project=%s", task.ProjectID), 2},
		{"type=purchase_order", 1},
		{"type=change_order", 1},
		{fmt.Sprintf("task=%s", uuid.New()), 0},
	}

	for _, tt := range tests {
		r := test.Request(suite.T(), http.MethodGet, "/v1/transactions?"+tt.query, "")
		test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

		var response v1.TransactionListResponse
		test.DecodeResponse(suite.T(), &r, &response)
		assert.Len(suite.T(), response.Data, tt.count, "query %q", tt.query)
	}
}

func (suite *TestSuiteEnv) TestGetTransactionsInvalidType() {
	r := test.Request(suite.T(), http.MethodGet, "/v1/transactions?type=donation", "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusBadRequest)
}

func (suite *TestSuiteEnv) TestGetTransaction() {
	_ = suite.approveTestOrders()

	var transaction models.Transaction
	assert.Nil(suite.T(), models.DB.First(&transaction).Error)

	r := test.Request(suite.T(), http.MethodGet, fmt.Sprintf("/v1/transactions/%s", transaction.ID), "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var response v1.TransactionResponse
	test.DecodeResponse(suite.T(), &r, &response)
	assert.Equal(suite.T(), transaction.Number, response.Data.Number)
}

func (suite *TestSuiteEnv) TestGetTransactionNotFound() {
	r := test.Request(suite.T(), http.MethodGet, fmt.Sprintf("/v1/transactions/%s", uuid.New()), "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusNotFound)
}

// The ledger has no write routes.
func (suite *TestSuiteEnv) TestTransactionsAppendOnly() {
	_ = suite.approveTestOrders()

	var transaction models.Transaction
	assert.Nil(suite.T(), models.DB.First(&transaction).Error)

	r := test.Request(suite.T(), http.MethodPost, "/v1/transactions", `{}`)
	test.AssertHTTPStatus(suite.T(), &r, http.StatusMethodNotAllowed)

	r = test.Request(suite.T(), http.MethodPatch, fmt.Sprintf("/v1/transactions/%s", transaction.ID), `{}`)
	test.AssertHTTPStatus(suite.T(), &r, http.StatusMethodNotAllowed)

	r = test.Request(suite.T(), http.MethodDelete, fmt.Sprintf("/v1/transactions/%s", transaction.ID), "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusMethodNotAllowed)
}
