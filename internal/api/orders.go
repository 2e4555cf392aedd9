package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/khadijabh/cafe-store/internal/models"
	"github.com/khadijabh/cafe-store/internal/store"
)

// placeOrderRequest carries delivery and contact details only. The items
// and their prices always come from the caller's server-side cart;
// client-supplied item lists are not accepted.
type placeOrderRequest struct {
	Name            string `json:"name" binding:"required"`
	Email           string `json:"email" binding:"omitempty,email"`
	Phone           string `json:"phone" binding:"required"`
	DeliveryAddress string `json:"delivery_address" binding:"required"`
	DeliveryDate    string `json:"delivery_date" binding:"required,datetime=2006-01-02,futuredate"`
	Notes           string `json:"notes"`
}

func (a *API) placeOrder(c *gin.Context) {
	var req placeOrderRequest
	if !a.bindJSON(c, &req) {
		return
	}

	deliveryDate, err := time.Parse(dateLayout, req.DeliveryDate)
	if err != nil {
		respondError(c, http.StatusUnprocessableEntity, "validation failed",
			gin.H{"delivery_date": "must be a date in YYYY-MM-DD format"})
		return
	}

	order, err := store.PlaceOrder(c.Request.Context(), a.DB, store.PlaceOrderRequest{
		UserID: currentUserID(c),
		Contact: models.ContactSnapshot{
			Name:    req.Name,
			Email:   req.Email,
			Phone:   req.Phone,
			Address: req.DeliveryAddress,
		},
		DeliveryAddress: req.DeliveryAddress,
		DeliveryDate:    deliveryDate,
		Notes:           req.Notes,
	})
	if err != nil {
		a.respondStoreError(c, err)
		return
	}

	respondData(c, http.StatusCreated, gin.H{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"total":        order.TotalAmount,
		"status":       order.Status,
	})
}

func (a *API) listOrders(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	result, err := store.ListOrdersCursor(c.Request.Context(), a.DB, currentUserID(c), c.Query("cursor"), limit)
	if err != nil {
		a.respondStoreError(c, err)
		return
	}

	respondData(c, http.StatusOK, result)
}

func (a *API) getOrder(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	order, err := store.GetOrderForUser(c.Request.Context(), a.DB, currentUserID(c), id)
	if err != nil {
		a.respondStoreError(c, err)
		return
	}

	respondData(c, http.StatusOK, order)
}

func (a *API) cancelOrder(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	order, err := store.CancelOrder(c.Request.Context(), a.DB, currentUserID(c), id)
	if err != nil {
		a.respondStoreError(c, err)
		return
	}

	respondData(c, http.StatusOK, order)
}
