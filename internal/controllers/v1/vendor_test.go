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

func (suite *TestSuiteEnv) TestCreateVendor() {
	r := test.Request(suite.T(), http.MethodPost, "/v1/vendors", v1.VendorEditable{
		Name:          "Hochtief Supplies GmbH",
		ContactPerson: "M. Oduya",
		Email:         "orders@hochtief-supplies.example",
	})
	test.AssertHTTPStatus(suite.T(), &r, http.StatusCreated)

	var response v1.VendorResponse
	test.DecodeResponse(suite.T(), &r, &response)
	assert.Equal(suite.T(), "Hochtief Supplies GmbH", response.Data.Name)
	assert.Equal(suite.T(), "http://example.com/v1/vendors/"+response.Data.ID.String(), response.Data.Links.Self)
}

func (suite *TestSuiteEnv) TestCreateVendorDuplicateName() {
	_ = suite.createTestVendor("Hochtief Supplies GmbH")

	r := test.Request(suite.T(), http.MethodPost, "/v1/vendors", v1.VendorEditable{Name: "Hochtief Supplies GmbH"})
	test.AssertHTTPStatus(suite.T(), &r, http.StatusBadRequest)
}

func (suite *TestSuiteEnv) TestGetVendors() {
	_ = suite.createTestVendor("Alpha Baustoffe")
	_ = suite.createTestVendor("Beton Berger")

	r := test.Request(suite.T(), http.MethodGet, "/v1/vendors", "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var response v1.VendorListResponse
	test.DecodeResponse(suite.T(), &r, &response)
	assert.Len(suite.T(), response.Data, 2)

	// Fuzzy name filter
	r = test.Request(suite.T(), http.MethodGet, "/v1/vendors?name=Berger", "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	test.DecodeResponse(suite.T(), &r, &response)
	assert.Len(suite.T(), response.Data, 1)
	assert.Equal(suite.T(), "Beton Berger", response.Data[0].Name)
}

func (suite *TestSuiteEnv) TestUpdateVendorArchive() {
	vendor := suite.createTestVendor("Hochtief Supplies GmbH")
	task := suite.createTestTask("10000.00")
	clerk := suite.createTestUser(models.RoleClerk)

	r := test.Request(suite.T(), http.MethodPatch, fmt.Sprintf("/v1/vendors/%s", vendor.ID), `{ "archived": true }`)
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	// Archived vendors cannot receive new purchase orders
	r = test.Request(suite.T(), http.MethodPost, "/v1/purchase-orders", v1.PurchaseOrderEditable{
		TaskID: task.ID, VendorID: vendor.ID, CreatedByID: clerk.ID,
	})
	test.AssertHTTPStatus(suite.T(), &r, http.StatusBadRequest)
}

func (suite *TestSuiteEnv) TestDeleteVendor() {
	vendor := suite.createTestVendor("Hochtief Supplies GmbH")

	r := test.Request(suite.T(), http.MethodDelete, fmt.Sprintf("/v1/vendors/%s", vendor.ID), "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusNoContent)

	r = test.Request(suite.T(), http.MethodGet, fmt.Sprintf("/v1/vendors/%s", vendor.ID), "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusNotFound)
}

func (suite *TestSuiteEnv) TestGetVendorNotFound() {
	r := test.Request(suite.T(), http.MethodGet, fmt.Sprintf("/v1/vendors/%s", uuid.New()), "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusNotFound)
}
