package handlers

import (
	"net/http"

	"restaurant-crm-api/middleware"
	"restaurant-crm-api/services"

	"github.com/gin-gonic/gin"
)

// ── Restaurants ─────────────────────────────────────────────────────────────

func (h *Handler) GetRestaurants(c *gin.Context) {
	restaurants, err := h.restaurants.List(c.Request.Context(), pageFromQuery(c))
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"restaurants": restaurants}, "Restaurants fetched successfully")
}

func (h *Handler) GetRestaurant(c *gin.Context) {
	id, ok := paramID(c, "restaurantID", "Restaurant")
	if !ok {
		return
	}
	restaurant, err := h.restaurants.Get(c.Request.Context(), id)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"restaurant": restaurant}, "Restaurant fetched successfully")
}

// AddRestaurant creates a restaurant, optionally with its first contacts
func (h *Handler) AddRestaurant(c *gin.Context) {
	var req services.CreateRestaurantInput
	if !bind(c, &req) {
		return
	}
	restaurant, err := h.restaurants.Create(c.Request.Context(), req)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	respond(c, http.StatusCreated, gin.H{"restaurant": restaurant}, "Restaurant created successfully")
}

func (h *Handler) DeleteRestaurant(c *gin.Context) {
	id, ok := paramID(c, "restaurantID", "Restaurant")
	if !ok {
		return
	}
	if err := h.restaurants.Delete(c.Request.Context(), id); err != nil {
		middleware.Abort(c, err)
		return
	}
	respond(c, http.StatusAccepted, nil, "Restaurant deleted successfully")
}

// ── Contacts ────────────────────────────────────────────────────────────────

func (h *Handler) GetContacts(c *gin.Context) {
	id, ok := paramID(c, "restaurantID", "Restaurant")
	if !ok {
		return
	}
	contacts, err := h.restaurants.ListContacts(c.Request.Context(), id)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"contacts": contacts}, "Contacts fetched successfully")
}

func (h *Handler) AddContact(c *gin.Context) {
	id, ok := paramID(c, "restaurantID", "Restaurant")
	if !ok {
		return
	}
	var req services.ContactInput
	if !bind(c, &req) {
		return
	}
	contact, err := h.restaurants.AddContact(c.Request.Context(), id, req)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	respond(c, http.StatusCreated, gin.H{"contact": contact}, "Contact created successfully")
}
