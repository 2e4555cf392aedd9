package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/khadijabh/cafe-store/internal/store"
)

type categoryRequest struct {
	Name string `json:"name" binding:"required"`
}

func (a *API) listCategories(c *gin.Context) {
	categories, err := store.ListCategories(c.Request.Context(), a.DB)
	if err != nil {
		a.respondStoreError(c, err)
		return
	}

	respondData(c, http.StatusOK, categories)
}

func (a *API) listCategoryProducts(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	// 404 for an unknown category, not an empty page.
	if _, err := store.GetCategory(c.Request.Context(), a.DB, id); err != nil {
		a.respondStoreError(c, err)
		return
	}

	page, pageSize := pageParams(c)
	result, err := store.ListProducts(c.Request.Context(), a.DB, id, page, pageSize)
	if err != nil {
		a.respondStoreError(c, err)
		return
	}

	respondData(c, http.StatusOK, result)
}

func (a *API) createCategory(c *gin.Context) {
	var req categoryRequest
	if !a.bindJSON(c, &req) {
		return
	}

	category, err := store.CreateCategory(c.Request.Context(), a.DB, req.Name)
	if err != nil {
		a.respondStoreError(c, err)
		return
	}

	respondData(c, http.StatusCreated, category)
}

func (a *API) updateCategory(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req categoryRequest
	if !a.bindJSON(c, &req) {
		return
	}

	category, err := store.UpdateCategory(c.Request.Context(), a.DB, id, req.Name)
	if err != nil {
		a.respondStoreError(c, err)
		return
	}

	respondData(c, http.StatusOK, category)
}

func (a *API) deleteCategory(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := store.DeleteCategory(c.Request.Context(), a.DB, id); err != nil {
		a.respondStoreError(c, err)
		return
	}

	respondData(c, http.StatusOK, gin.H{"deleted": id})
}
