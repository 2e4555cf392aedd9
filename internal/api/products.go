package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/khadijabh/cafe-store/internal/database"
	"github.com/khadijabh/cafe-store/internal/store"
	"github.com/shopspring/decimal"
)

// productRequest uses pointer fields for the numeric values so a missing
// field is rejected instead of silently becoming zero.
type productRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	Price       *float64 `json:"price" binding:"required,gte=0"`
	Stock       *int     `json:"stock_quantity" binding:"required,gte=0"`
	CategoryID  int64    `json:"category_id" binding:"required,gt=0"`
	ImageURL    string   `json:"image_url" binding:"omitempty,url"`
}

func (r *productRequest) params() store.ProductParams {
	return store.ProductParams{
		Name:        r.Name,
		Description: r.Description,
		Price:       decimal.NewFromFloat(*r.Price),
		Stock:       *r.Stock,
		CategoryID:  r.CategoryID,
		ImageURL:    r.ImageURL,
	}
}

func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id < 1 {
		respondError(c, http.StatusBadRequest, "invalid "+name, nil)
		return 0, false
	}
	return id, true
}

func pageParams(c *gin.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(c.Query("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ = strconv.Atoi(c.Query("page_size"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}

func (a *API) listProducts(c *gin.Context) {
	var categoryID int64
	if raw := c.Query("category"); raw != "" {
		var err error
		categoryID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil || categoryID < 1 {
			respondError(c, http.StatusBadRequest, "invalid category", nil)
			return
		}
	}

	page, pageSize := pageParams(c)
	result, err := store.ListProducts(c.Request.Context(), a.DB, categoryID, page, pageSize)
	if err != nil {
		a.respondStoreError(c, err)
		return
	}

	respondData(c, http.StatusOK, result)
}

func (a *API) getProduct(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	product, err := store.GetProduct(c.Request.Context(), a.DB, id)
	if err != nil {
		a.respondStoreError(c, err)
		return
	}

	respondData(c, http.StatusOK, product)
}

func (a *API) createProduct(c *gin.Context) {
	var req productRequest
	if !a.bindJSON(c, &req) {
		return
	}

	product, err := store.CreateProduct(c.Request.Context(), a.DB, req.params())
	if err != nil {
		if errors.Is(err, database.ErrCategoryNotFound) {
			respondError(c, http.StatusUnprocessableEntity, "validation failed",
				gin.H{"category_id": "does not exist"})
			return
		}
		a.respondStoreError(c, err)
		return
	}

	respondData(c, http.StatusCreated, product)
}

func (a *API) updateProduct(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req productRequest
	if !a.bindJSON(c, &req) {
		return
	}

	product, err := store.UpdateProduct(c.Request.Context(), a.DB, id, req.params())
	if err != nil {
		if errors.Is(err, database.ErrCategoryNotFound) {
			respondError(c, http.StatusUnprocessableEntity, "validation failed",
				gin.H{"category_id": "does not exist"})
			return
		}
		a.respondStoreError(c, err)
		return
	}

	respondData(c, http.StatusOK, product)
}

func (a *API) deleteProduct(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := store.DeleteProduct(c.Request.Context(), a.DB, id); err != nil {
		a.respondStoreError(c, err)
		return
	}

	respondData(c, http.StatusOK, gin.H{"deleted": id})
}
