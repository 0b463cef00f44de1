package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"restaurant-crm-api/handlers"
	"restaurant-crm-api/middleware"
	"restaurant-crm-api/ratelimit"
	"restaurant-crm-api/routes"
	"restaurant-crm-api/services"
	"restaurant-crm-api/testutil"
	"restaurant-crm-api/tokens"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type server struct {
	t      *testing.T
	engine *gin.Engine
	db     *gorm.DB
}

type envelope struct {
	StatusCode int             `json:"status_code"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	Success    bool            `json:"success"`
	Error      string          `json:"error"`
}

func newServer(t *testing.T, loginLimit int) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.NewDB(t)

	tokenService := tokens.NewService(db, []byte("handler-secret"), time.Minute, time.Hour)
	accounts := services.NewAccountService(db, tokenService)
	h := handlers.New(handlers.Deps{
		Accounts:     accounts,
		Leads:        services.NewLeadService(db),
		Restaurants:  services.NewRestaurantService(db),
		Products:     services.NewProductService(db),
		Orders:       services.NewOrderService(db),
		LoginLimiter: ratelimit.NewMemory(loginLimit, time.Minute),
	})

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	r := gin.New()
	r.Use(middleware.RequestLogger(log))
	routes.SetupRoutes(r, h, middleware.AuthRequired(tokenService, accounts))
	return &server{t: t, engine: r, db: db}
}

func (s *server) do(method, path string, body interface{}, token string, cookies ...*http.Cookie) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = "192.0.2.10:4321"
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var env envelope
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

type session struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	User         struct {
		ID uint `json:"id"`
	} `json:"user"`
}

func (s *server) registerAndLogin(email string) session {
	s.t.Helper()
	w, _ := s.do(http.MethodPost, "/api/v1/users", gin.H{
		"name": "Maria", "email": email, "password": "secret1", "role": "sales",
	}, "")
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())

	w, env := s.do(http.MethodPost, "/api/v1/users/login", gin.H{"email": email, "password": "secret1"}, "")
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	var sess session
	require.NoError(s.t, json.Unmarshal(env.Data, &sess))
	require.NotEmpty(s.t, sess.AccessToken)
	return sess
}

func cookieNamed(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestLeadFlow(t *testing.T) {
	s := newServer(t, 10)
	sess := s.registerAndLogin("rep@example.com")

	w, env := s.do(http.MethodPost, "/api/v1/restaurants", gin.H{
		"name":     "Luigi's",
		"location": "Turin",
		"contacts": []gin.H{{"name": "Luigi", "email": "luigi@example.com", "mobile_no": "123", "role": "owner"}},
	}, sess.AccessToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		Restaurant struct {
			ID uint `json:"id"`
		} `json:"restaurant"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))

	pizza := testutil.SeedProduct(t, s.db, "Pizza dough", 4.5)
	pasta := testutil.SeedProduct(t, s.db, "Fresh pasta", 6)

	w, env = s.do(http.MethodPost, "/api/v1/leads", gin.H{
		"title":          "Weekly dough supply",
		"call_frequency": "weekly",
		"assigned_to":    sess.User.ID,
		"restaurant_id":  created.Restaurant.ID,
		"total_value":    120,
		"orders": []gin.H{
			{"product_id": pizza.ID, "quantity": 10, "total_price": 45},
			{"product_id": pasta.ID, "quantity": 0, "total_price": 30},
			{"product_id": pasta.ID, "quantity": 5, "total_price": 30},
		},
	}, sess.AccessToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.True(t, env.Success)
	var lead struct {
		Lead struct {
			ID     uint   `json:"id"`
			Status string `json:"status"`
		} `json:"lead"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &lead))
	assert.Equal(t, "open", lead.Lead.Status)

	w, env = s.do(http.MethodGet, "/api/v1/leads/"+itoa(lead.Lead.ID)+"/orders", nil, sess.AccessToken)
	require.Equal(t, http.StatusOK, w.Code)
	var orders struct {
		Orders []services.OrderLine `json:"orders"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &orders))
	require.Len(t, orders.Orders, 2)
	assert.Equal(t, "Pizza dough", orders.Orders[0].ProductName)
	assert.Equal(t, "Fresh pasta", orders.Orders[1].ProductName)

	w, env = s.do(http.MethodPatch, "/api/v1/leads/"+itoa(lead.Lead.ID), gin.H{"status": "Done"}, sess.AccessToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, string(env.Data), `"status":"done"`)

	w, env = s.do(http.MethodPatch, "/api/v1/leads/"+itoa(lead.Lead.ID), gin.H{"status": "archived"}, sess.AccessToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Wrong status", env.Message)

	w, env = s.do(http.MethodDelete, "/api/v1/restaurants/"+itoa(created.Restaurant.ID), nil, sess.AccessToken)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.False(t, env.Success)

	w, _ = s.do(http.MethodDelete, "/api/v1/leads/"+itoa(lead.Lead.ID), nil, sess.AccessToken)
	assert.Equal(t, http.StatusAccepted, w.Code)
	w, _ = s.do(http.MethodDelete, "/api/v1/restaurants/"+itoa(created.Restaurant.ID), nil, sess.AccessToken)
	assert.Equal(t, http.StatusAccepted, w.Code)
}

func TestErrorEnvelope(t *testing.T) {
	s := newServer(t, 10)

	w, env := s.do(http.MethodGet, "/api/v1/leads", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, http.StatusUnauthorized, env.StatusCode)
	assert.Equal(t, "unauthorized", env.Error)
	assert.False(t, env.Success)

	sess := s.registerAndLogin("rep@example.com")
	w, env = s.do(http.MethodGet, "/api/v1/leads/abc", nil, sess.AccessToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_input", env.Error)

	w, env = s.do(http.MethodGet, "/api/v1/leads/42", nil, sess.AccessToken)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Lead does not exist", env.Message)

	w, env = s.do(http.MethodPost, "/api/v1/users", gin.H{
		"name": "Other", "email": "rep@example.com", "password": "secret1", "role": "sales",
	}, "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "conflict", env.Error)
}

func TestSessionCookiesAndRefresh(t *testing.T) {
	s := newServer(t, 10)
	s.registerAndLogin("rep@example.com")

	w, _ := s.do(http.MethodPost, "/api/v1/users/login", gin.H{"email": "rep@example.com", "password": "secret1"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	access := cookieNamed(w, middleware.AccessTokenCookie)
	refresh := cookieNamed(w, middleware.RefreshTokenCookie)
	require.NotNil(t, access)
	require.NotNil(t, refresh)
	assert.True(t, access.HttpOnly)

	w, env := s.do(http.MethodGet, "/api/v1/users/get-user", nil, "", access)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), "rep@example.com")
	assert.NotContains(t, string(env.Data), "password")

	w, env = s.do(http.MethodPost, "/api/v1/users/refresh-token", nil, "", refresh)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var pair tokens.Pair
	require.NoError(t, json.Unmarshal(env.Data, &pair))
	assert.NotEqual(t, refresh.Value, pair.RefreshToken)

	// a refresh token is single-use
	w, env = s.do(http.MethodGet, "/api/v1/users/refresh-token", nil, "", refresh)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Refresh token is expired or used", env.Message)

	// body fallback
	w, _ = s.do(http.MethodPost, "/api/v1/users/refresh-token", gin.H{"refresh_token": pair.RefreshToken}, "")
	require.Equal(t, http.StatusOK, w.Code)
	latest := cookieNamed(w, middleware.RefreshTokenCookie)
	require.NotNil(t, latest)

	w, env = s.do(http.MethodPost, "/api/v1/users/refresh-token", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Unauthorized request", env.Message)

	w, _ = s.do(http.MethodGet, "/api/v1/users/logout", nil, "", access)
	require.Equal(t, http.StatusOK, w.Code)
	cleared := cookieNamed(w, middleware.RefreshTokenCookie)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
	assert.Negative(t, cleared.MaxAge)

	w, _ = s.do(http.MethodPost, "/api/v1/users/refresh-token", nil, "", latest)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginRateLimited(t *testing.T) {
	s := newServer(t, 2)
	s.registerAndLogin("rep@example.com") // uses one attempt

	w, _ := s.do(http.MethodPost, "/api/v1/users/login", gin.H{"email": "rep@example.com", "password": "wrong"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, env := s.do(http.MethodPost, "/api/v1/users/login", gin.H{"email": "rep@example.com", "password": "secret1"}, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "rate_limited", env.Error)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	// another email from the same address has its own window
	w, _ = s.do(http.MethodPost, "/api/v1/users/login", gin.H{"email": "other@example.com", "password": "secret1"}, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLeadStateMachineAndCatalog(t *testing.T) {
	s := newServer(t, 10)
	sess := s.registerAndLogin("rep@example.com")
	pizza := testutil.SeedProduct(t, s.db, "Pizza dough", 4.5)

	w, env := s.do(http.MethodGet, "/api/v1/leads/state-machine", nil, sess.AccessToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"initial_state":"open"`)

	w, env = s.do(http.MethodGet, "/api/v1/products/"+itoa(pizza.ID), nil, sess.AccessToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), "Pizza dough")

	w, _ = s.do(http.MethodGet, "/api/v1/orders/99", nil, sess.AccessToken)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env = s.do(http.MethodGet, "/api/v1/users", nil, sess.AccessToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"name":"Maria"`)
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
