package handlers

import (
	"net/http"

	"restaurant-crm-api/middleware"

	"github.com/gin-gonic/gin"
)

// Products and orders are read-only through the API

func (h *Handler) GetProducts(c *gin.Context) {
	products, err := h.products.List(c.Request.Context())
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"products": products}, "Products fetched successfully")
}

func (h *Handler) GetProduct(c *gin.Context) {
	id, ok := paramID(c, "productID", "Product")
	if !ok {
		return
	}
	product, err := h.products.Get(c.Request.Context(), id)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"product": product}, "Product fetched successfully")
}

func (h *Handler) GetOrders(c *gin.Context) {
	orders, err := h.orders.List(c.Request.Context(), pageFromQuery(c))
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"orders": orders}, "Orders fetched successfully")
}

func (h *Handler) GetOrder(c *gin.Context) {
	id, ok := paramID(c, "orderID", "Order")
	if !ok {
		return
	}
	order, err := h.orders.Get(c.Request.Context(), id)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"order": order}, "Order fetched successfully")
}
