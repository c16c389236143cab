package v1

import (
	"fmt"

	"github.com/buildledger/backend/internal/models"
	"github.com/gin-gonic/gin"
)

type VendorEditable struct {
	Name          string `json:"name" example:"Hochtief Supplies GmbH"`
	ContactPerson string `json:"contactPerson" example:"M. Oduya"`
	Email         string `json:"email" example:"orders@hochtief-supplies.example"`
	Phone         string `json:"phone" example:"+49 201 824-0"`
	Archived      bool   `json:"archived" example:"false"` // Archived vendors cannot receive new purchase orders
}

// model returns the database resource for the API representation of the editable fields
func (editable VendorEditable) model() models.Vendor {
	return models.Vendor{
		Name:          editable.Name,
		ContactPerson: editable.ContactPerson,
		Email:         editable.Email,
		Phone:         editable.Phone,
		Archived:      editable.Archived,
	}
}

type VendorLinks struct {
	Self string `json:"self" example:"https://example.com/api/v1/vendors/5b8cfc27-9a26-4c05-9e49-283aa40bf70b"`
}

// Vendor is the API representation of a vendor.
type Vendor struct {
	models.Vendor
	Links VendorLinks `json:"links"`
}

// newVendor returns the API representation of the resource.
func newVendor(c *gin.Context, model models.Vendor) Vendor {
	url := c.GetString(string(models.DBContextURL))

	return Vendor{
		Vendor: model,
		Links: VendorLinks{
			Self: fmt.Sprintf("%s/v1/vendors/%s", url, model.ID),
		},
	}
}

type VendorResponse struct {
	Error *string `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
	Data  *Vendor `json:"data"`                                                          // The vendor data
}

type VendorListResponse struct {
	Data       []Vendor    `json:"data"`                                                          // List of vendors
	Error      *string     `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
	Pagination *Pagination `json:"pagination"`                                                    // Pagination information
}

type VendorQueryFilter struct {
	Name     string `form:"name" filterField:"false"`   // By name, fuzzy
	Archived bool   `form:"archived"`                   // Is the vendor archived?
	Offset   uint   `form:"offset" filterField:"false"` // The offset of the first vendor returned. Defaults to 0.
	Limit    int    `form:"limit" filterField:"false"`  // Maximum number of vendors to return. Defaults to 50.
}

func (f VendorQueryFilter) model() models.Vendor {
	return models.Vendor{
		Archived: f.Archived,
	}
}
