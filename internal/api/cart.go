package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/khadijabh/cafe-store/internal/store"
)

type addCartItemRequest struct {
	ProductID int64 `json:"product_id" binding:"required,gt=0"`
	Quantity  int   `json:"quantity" binding:"required,gte=1"`
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"required,gte=1"`
}

// respondCart writes the caller's fresh cart snapshot; every cart mutation
// returns the same shape so the UI can re-render from any response.
func (a *API) respondCart(c *gin.Context, status int) {
	cart, err := store.GetCart(c.Request.Context(), a.DB, currentUserID(c))
	if err != nil {
		a.respondStoreError(c, err)
		return
	}
	respondData(c, status, cart)
}

func (a *API) getCart(c *gin.Context) {
	a.respondCart(c, http.StatusOK)
}

func (a *API) addCartItem(c *gin.Context) {
	var req addCartItemRequest
	if !a.bindJSON(c, &req) {
		return
	}

	err := store.AddCartLine(c.Request.Context(), a.DB, currentUserID(c), req.ProductID, req.Quantity)
	if err != nil {
		a.respondStoreError(c, err)
		return
	}

	a.respondCart(c, http.StatusOK)
}

func (a *API) updateCartItem(c *gin.Context) {
	productID, ok := paramID(c, "productId")
	if !ok {
		return
	}

	var req updateCartItemRequest
	if !a.bindJSON(c, &req) {
		return
	}

	err := store.UpdateCartLineQuantity(c.Request.Context(), a.DB, currentUserID(c), productID, req.Quantity)
	if err != nil {
		a.respondStoreError(c, err)
		return
	}

	a.respondCart(c, http.StatusOK)
}

func (a *API) removeCartItem(c *gin.Context) {
	productID, ok := paramID(c, "productId")
	if !ok {
		return
	}

	err := store.RemoveCartLine(c.Request.Context(), a.DB, currentUserID(c), productID)
	if err != nil {
		a.respondStoreError(c, err)
		return
	}

	a.respondCart(c, http.StatusOK)
}

func (a *API) clearCart(c *gin.Context) {
	if _, err := store.ClearCart(c.Request.Context(), a.DB, currentUserID(c)); err != nil {
		a.respondStoreError(c, err)
		return
	}

	a.respondCart(c, http.StatusOK)
}
