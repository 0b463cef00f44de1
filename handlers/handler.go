package handlers

import (
	"net/http"
	"strconv"

	"restaurant-crm-api/apperr"
	"restaurant-crm-api/middleware"
	"restaurant-crm-api/ratelimit"
	"restaurant-crm-api/services"
	"restaurant-crm-api/tokens"

	"github.com/gin-gonic/gin"
)

// Handler holds the workflows the HTTP layer dispatches to
type Handler struct {
	accounts      *services.AccountService
	leads         *services.LeadService
	restaurants   *services.RestaurantService
	products      *services.ProductService
	orders        *services.OrderService
	loginLimiter  ratelimit.Limiter
	secureCookies bool
}

type Deps struct {
	Accounts      *services.AccountService
	Leads         *services.LeadService
	Restaurants   *services.RestaurantService
	Products      *services.ProductService
	Orders        *services.OrderService
	LoginLimiter  ratelimit.Limiter
	SecureCookies bool
}

func New(d Deps) *Handler {
	return &Handler{
		accounts:      d.Accounts,
		leads:         d.Leads,
		restaurants:   d.Restaurants,
		products:      d.Products,
		orders:        d.Orders,
		loginLimiter:  d.LoginLimiter,
		secureCookies: d.SecureCookies,
	}
}

// respond writes the success envelope
func respond(c *gin.Context, status int, data gin.H, message string) {
	if data == nil {
		data = gin.H{}
	}
	c.JSON(status, gin.H{
		"status_code": status,
		"data":        data,
		"message":     message,
		"success":     true,
	})
}

// bind decodes the JSON body, aborting with InvalidInput on failure
func bind(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		middleware.Abort(c, apperr.InvalidInput("Invalid request body: "+err.Error()))
		return false
	}
	return true
}

// paramID parses a numeric path parameter
func paramID(c *gin.Context, name, label string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		middleware.Abort(c, apperr.InvalidInput(label+" id is required"))
		return 0, false
	}
	return uint(id), true
}

func pageFromQuery(c *gin.Context) services.Page {
	limit, _ := strconv.Atoi(c.Query("limit"))
	page, _ := strconv.Atoi(c.Query("page"))
	return services.Page{Limit: limit, Page: page, Sort: c.Query("sort")}
}

func (h *Handler) setSessionCookies(c *gin.Context, pair tokens.Pair) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AccessTokenCookie, pair.AccessToken, 0, "/", "", h.secureCookies, true)
	c.SetCookie(middleware.RefreshTokenCookie, pair.RefreshToken, 0, "/", "", h.secureCookies, true)
}

func (h *Handler) clearSessionCookies(c *gin.Context) {
	c.SetCookie(middleware.AccessTokenCookie, "", -1, "/", "", h.secureCookies, true)
	c.SetCookie(middleware.RefreshTokenCookie, "", -1, "/", "", h.secureCookies, true)
}
