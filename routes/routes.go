package routes

import (
	"restaurant-crm-api/handlers"

	"github.com/gin-gonic/gin"
)

// SetupRoutes mounts the API under /api/v1; guard protects everything but
// registration, login and refresh
func SetupRoutes(r *gin.Engine, h *handlers.Handler, guard gin.HandlerFunc) {
	v1 := r.Group("/api/v1")

	// ── Public routes ──────────────────────────────────────────────
	users := v1.Group("/users")
	{
		users.POST("", h.Register)
		users.POST("/login", h.Login)
		users.GET("/refresh-token", h.RefreshToken)
		users.POST("/refresh-token", h.RefreshToken)
	}

	// ── Authenticated routes ───────────────────────────────────────
	account := v1.Group("/users")
	account.Use(guard)
	{
		account.GET("", h.GetUsers)
		account.GET("/logout", h.Logout)
		account.POST("/change-password", h.ChangePassword)
		account.GET("/get-user", h.GetUser)
	}

	leads := v1.Group("/leads")
	leads.Use(guard)
	{
		leads.GET("", h.GetLeads)
		leads.POST("", h.AddLead)
		leads.GET("/state-machine", h.GetLeadStateMachine)
		leads.GET("/:leadID", h.GetLead)
		leads.PATCH("/:leadID", h.SetLeadStatus)
		leads.DELETE("/:leadID", h.DeleteLead)
		leads.GET("/:leadID/orders", h.GetLeadOrders)
		leads.GET("/:leadID/calls", h.GetCalls)
		leads.POST("/:leadID/calls", h.AddCall)
	}

	restaurants := v1.Group("/restaurants")
	restaurants.Use(guard)
	{
		restaurants.GET("", h.GetRestaurants)
		restaurants.POST("", h.AddRestaurant)
		restaurants.GET("/:restaurantID", h.GetRestaurant)
		restaurants.DELETE("/:restaurantID", h.DeleteRestaurant)
		restaurants.GET("/:restaurantID/contacts", h.GetContacts)
		restaurants.POST("/:restaurantID/contacts", h.AddContact)
	}

	catalog := v1.Group("")
	catalog.Use(guard)
	{
		catalog.GET("/products", h.GetProducts)
		catalog.GET("/products/:productID", h.GetProduct)
		catalog.GET("/orders", h.GetOrders)
		catalog.GET("/orders/:orderID", h.GetOrder)
	}
}
