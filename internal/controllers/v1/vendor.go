package v1

import (
	"net/http"

	"github.com/buildledger/backend/internal/httputil"
	"github.com/buildledger/backend/internal/models"
	"github.com/gin-gonic/gin"
	"golang.org/x/exp/slices"
)

// RegisterVendorRoutes registers the routes for vendors with the
// RouterGroup that is passed.
func RegisterVendorRoutes(r *gin.RouterGroup) {
	// Root group
	{
		r.OPTIONS("", OptionsVendors)
		r.GET("", GetVendors)
		r.POST("", CreateVendor)
	}

	// Vendor with ID
	{
		r.OPTIONS("/:id", OptionsVendorDetail)
		r.GET("/:id", GetVendor)
		r.PATCH("/:id", UpdateVendor)
		r.DELETE("/:id", DeleteVendor)
	}
}

// getVendor is the shared load-by-URI helper for all detail routes.
func getVendor(c *gin.Context) (models.Vendor, bool) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), VendorResponse{Error: &e})
		return models.Vendor{}, false
	}

	var vendor models.Vendor
	err = models.DB.First(&vendor, "id = ?", uri.ID.UUID).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), VendorResponse{Error: &e})
		return models.Vendor{}, false
	}

	return vendor, true
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Vendors
// @Success		204
// @Router			/v1/vendors [options]
func OptionsVendors(c *gin.Context) {
	httputil.OptionsGetPost(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Vendors
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/vendors/{id} [options]
func OptionsVendorDetail(c *gin.Context) {
	_, ok := getVendor(c)
	if !ok {
		return
	}

	httputil.OptionsGetPatchDelete(c)
}

// @Summary		Create vendor
// @Description	Creates a new vendor
// @Tags			Vendors
// @Produce		json
// @Success		201		{object}	VendorResponse
// @Failure		400		{object}	VendorResponse
// @Failure		500		{object}	VendorResponse
// @Param			vendor	body		VendorEditable	true	"Vendor"
// @Router			/v1/vendors [post]
func CreateVendor(c *gin.Context) {
	var editable VendorEditable
	err := c.ShouldBindJSON(&editable)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), VendorResponse{Error: &e})
		return
	}

	vendor := editable.model()
	err = models.DB.Create(&vendor).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), VendorResponse{Error: &e})
		return
	}

	data := newVendor(c, vendor)
	c.JSON(http.StatusCreated, VendorResponse{Data: &data})
}

// @Summary		Get vendor
// @Description	Returns a specific vendor
// @Tags			Vendors
// @Produce		json
// @Success		200	{object}	VendorResponse
// @Failure		400	{object}	VendorResponse
// @Failure		404	{object}	VendorResponse
// @Failure		500	{object}	VendorResponse
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/vendors/{id} [get]
func GetVendor(c *gin.Context) {
	vendor, ok := getVendor(c)
	if !ok {
		return
	}

	data := newVendor(c, vendor)
	c.JSON(http.StatusOK, VendorResponse{Data: &data})
}

// @Summary		Get vendors
// @Description	Returns a list of vendors
// @Tags			Vendors
// @Produce		json
// @Success		200	{object}	VendorListResponse
// @Failure		400	{object}	VendorListResponse
// @Failure		500	{object}	VendorListResponse
// @Router			/v1/vendors [get]
// @Param			name		query	string	false	"Filter by name, fuzzy"
// @Param			archived	query	bool	false	"Is the vendor archived?"
// @Param			offset		query	uint	false	"The offset of the first vendor returned. Defaults to 0."
// @Param			limit		query	int		false	"Maximum number of vendors to return. Defaults to 50."
func GetVendors(c *gin.Context) {
	var filter VendorQueryFilter
	if err := c.Bind(&filter); err != nil {
		s := err.Error()
		c.JSON(http.StatusBadRequest, VendorListResponse{Error: &s})
		return
	}

	// Get the fields set in the filter
	queryFields, setFields := httputil.GetURLFields(c.Request.URL, filter)

	q := models.DB.
		Order("vendors.name ASC").
		Where(filter.model(), queryFields...)

	if filter.Name != "" {
		q = q.Where("vendors.name LIKE ?", "%"+filter.Name+"%")
	}

	q = q.Offset(int(filter.Offset))

	// Default to 50 vendors and set the limit
	limit := 50
	if slices.Contains(setFields, "Limit") {
		limit = filter.Limit
	}
	q = q.Limit(limit)

	var vendors []models.Vendor
	err := q.Find(&vendors).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), VendorListResponse{Error: &e})
		return
	}

	var count int64
	err = q.Limit(-1).Offset(-1).Count(&count).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), VendorListResponse{Error: &e})
		return
	}

	data := make([]Vendor, 0)
	for _, vendor := range vendors {
		data = append(data, newVendor(c, vendor))
	}

	c.JSON(http.StatusOK, VendorListResponse{
		Data: data,
		Pagination: &Pagination{
			Count:  len(data),
			Total:  count,
			Offset: filter.Offset,
			Limit:  limit,
		},
	})
}

// @Summary		Update vendor
// @Description	Updates a vendor. Archiving a vendor stops new purchase orders for it.
// @Tags			Vendors
// @Produce		json
// @Success		200		{object}	VendorResponse
// @Failure		400		{object}	VendorResponse
// @Failure		404		{object}	VendorResponse
// @Failure		500		{object}	VendorResponse
// @Param			id		path		URIID			true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Param			vendor	body		VendorEditable	true	"Vendor"
// @Router			/v1/vendors/{id} [patch]
func UpdateVendor(c *gin.Context) {
	vendor, ok := getVendor(c)
	if !ok {
		return
	}

	updateFields, err := httputil.GetBodyFields(c, VendorEditable{})
	if err != nil {
		e := err.Error()
		c.JSON(http.StatusBadRequest, VendorResponse{Error: &e})
		return
	}

	var data VendorEditable
	err = c.ShouldBindJSON(&data)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), VendorResponse{Error: &e})
		return
	}

	err = models.DB.Model(&vendor).Select("", updateFields...).Updates(data.model()).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), VendorResponse{Error: &e})
		return
	}

	response := newVendor(c, vendor)
	c.JSON(http.StatusOK, VendorResponse{Data: &response})
}

// @Summary		Delete vendor
// @Description	Deletes a vendor. Vendors referenced by purchase orders cannot be deleted.
// @Tags			Vendors
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/vendors/{id} [delete]
func DeleteVendor(c *gin.Context) {
	vendor, ok := getVendor(c)
	if !ok {
		return
	}

	err := models.DB.Delete(&vendor).Error
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}
