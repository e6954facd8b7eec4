// Package devbackend is an in-memory stand-in for the retail record store,
// used for local development and end-to-end tests. It intentionally answers
// in the mixed response shapes the real backend has shipped over the years so
// the gateway's lenient extractors stay honest.
package devbackend

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"

	"loyalty-gateway/pkg/platform/httputil"
)

// Employee is a seeded employee record.
type Employee struct {
	ID        string
	Name      string
	Avatar    string
	LineToken string
}

// Customer is a seeded or provisioned customer record.
type Customer struct {
	ID         string
	Name       string
	Avatar     string
	Phone      string
	LineToken  string
	ShopID     string
	BranchID   string
	CreatedVia string
}

// Shop holds the per-shop settings the gateway reads before awarding the
// sign-up bonus.
type Shop struct {
	ID                string
	Name              string
	RegisterPointRate float64
}

// PointEntry is one ledger line.
type PointEntry struct {
	CustomerID string
	Detail     string
	Points     int
}

// Server is the in-memory backend. Safe for concurrent use.
type Server struct {
	mu        sync.Mutex
	employees map[string]Employee // keyed by line token
	customers map[string]Customer // keyed by line token
	shops     map[string]Shop
	ledger    []PointEntry
	seq       int

	secret []byte
	logger *slog.Logger
}

type Option func(*Server)

func WithSecret(secret []byte) Option {
	return func(s *Server) {
		s.secret = secret
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

func New(opts ...Option) *Server {
	s := &Server{
		employees: make(map[string]Employee),
		customers: make(map[string]Customer),
		shops:     make(map[string]Shop),
		secret:    []byte("devbackend-local-secret"),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddEmployee seeds an employee record.
func (s *Server) AddEmployee(e Employee) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.employees[e.LineToken] = e
}

// AddCustomer seeds a customer record.
func (s *Server) AddCustomer(c Customer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customers[c.LineToken] = c
}

// AddShop seeds a shop with its settings.
func (s *Server) AddShop(shop Shop) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shops[shop.ID] = shop
}

// Ledger returns a copy of all point transactions recorded so far.
func (s *Server) Ledger() []PointEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]PointEntry, len(s.ledger))
	copy(out, s.ledger)
	return out
}

// CustomerByToken returns the stored customer for a line token, if any.
func (s *Server) CustomerByToken(token string) (Customer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.customers[token]
	return c, ok
}

// Router mounts the six record-store endpoints.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Get("/api/v1/employees/by-token", s.handleEmployeeLookup)
	r.Get("/api/v1/customers/by-token", s.handleCustomerLookup)
	r.Post("/api/v1/customers", s.handleCreateCustomer)
	r.Post("/api/v1/sessions", s.handleIssueSession)
	r.Get("/api/v1/shops/settings", s.handleShopSettings)
	r.Post("/api/v1/points", s.handleAwardPoints)
	return r
}

// handleEmployeeLookup answers in the structured shape: an explicit exists
// flag next to the record.
func (s *Server) handleEmployeeLookup(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("line_token")
	s.mu.Lock()
	e, ok := s.employees[token]
	s.mu.Unlock()

	if !ok {
		httputil.WriteJSON(w, http.StatusOK, map[string]any{"exists": false})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"exists": true,
		"employee": map[string]any{
			"id":     e.ID,
			"name":   e.Name,
			"avatar": e.Avatar,
		},
	})
}

// handleCustomerLookup answers in the legacy shape: the record under its
// domain key, nothing at all when absent.
func (s *Server) handleCustomerLookup(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("line_token")
	s.mu.Lock()
	c, ok := s.customers[token]
	shop, hasShop := s.shops[c.ShopID]
	s.mu.Unlock()

	if !ok {
		httputil.WriteJSON(w, http.StatusOK, map[string]any{})
		return
	}
	resp := map[string]any{"customer": s.customerRecord(c)}
	if hasShop {
		resp["shop"] = map[string]any{"id": shop.ID, "name": shop.Name}
	}
	if c.BranchID != "" {
		resp["branch"] = map[string]any{"id": c.BranchID}
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

type createCustomerRequest struct {
	LineToken string `json:"line_token"`
	Name      string `json:"name"`
	Avatar    string `json:"avatar"`
	Phone     string `json:"phone"`
	ShopID    string `json:"shop_id"`
	BranchID  string `json:"branch_id"`
}

// handleCreateCustomer answers in the middle-generation shape: the record
// under a generic data key.
func (s *Server) handleCreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req createCustomerRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, map[string]any{"message": "malformed body"})
		return
	}
	if req.LineToken == "" {
		httputil.WriteJSON(w, http.StatusUnprocessableEntity, map[string]any{"message": "line_token is required"})
		return
	}

	s.mu.Lock()
	if _, exists := s.customers[req.LineToken]; exists {
		s.mu.Unlock()
		httputil.WriteJSON(w, http.StatusConflict, map[string]any{"message": "duplicate line token"})
		return
	}
	s.seq++
	c := Customer{
		ID:         fmt.Sprintf("cus-%04d", s.seq),
		Name:       req.Name,
		Avatar:     req.Avatar,
		Phone:      req.Phone,
		LineToken:  req.LineToken,
		ShopID:     req.ShopID,
		BranchID:   req.BranchID,
		CreatedVia: "qr",
	}
	s.customers[req.LineToken] = c
	shop, hasShop := s.shops[c.ShopID]
	s.mu.Unlock()

	s.logger.Info("customer created", "customer_id", c.ID, "shop_id", c.ShopID)

	resp := map[string]any{"data": s.customerRecord(c)}
	if hasShop {
		resp["shop"] = map[string]any{"id": shop.ID, "name": shop.Name}
	}
	if c.BranchID != "" {
		resp["branch"] = map[string]any{"id": c.BranchID}
	}
	httputil.WriteJSON(w, http.StatusCreated, resp)
}

type issueSessionRequest struct {
	LineToken string `json:"line_token"`
	Name      string `json:"name"`
	UserType  string `json:"user_type"`
	UserID    string `json:"user_id"`
	ShopID    string `json:"shop_id"`
}

// handleIssueSession mints an HS256 credential and answers with the
// access_token field name, one of the aliases the gateway accepts.
func (s *Server) handleIssueSession(w http.ResponseWriter, r *http.Request) {
	var req issueSessionRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, map[string]any{"message": "malformed body"})
		return
	}
	if req.UserID == "" || req.UserType == "" {
		httputil.WriteJSON(w, http.StatusUnprocessableEntity, map[string]any{"message": "user_id and user_type are required"})
		return
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  req.UserID,
		"role": req.UserType,
		"name": req.Name,
		"shop": req.ShopID,
		"iat":  now.Unix(),
		"exp":  now.Add(24 * time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		httputil.WriteJSON(w, http.StatusInternalServerError, map[string]any{"message": "signing failed"})
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{"access_token": token})
}

func (s *Server) handleShopSettings(w http.ResponseWriter, r *http.Request) {
	if _, err := s.authenticate(r); err != nil {
		httputil.WriteJSON(w, http.StatusUnauthorized, map[string]any{"message": "invalid credential"})
		return
	}

	token := r.URL.Query().Get("line_token")
	s.mu.Lock()
	c, ok := s.customers[token]
	shop, hasShop := s.shops[c.ShopID]
	s.mu.Unlock()

	if !ok || !hasShop {
		httputil.WriteJSON(w, http.StatusOK, map[string]any{"settings": map[string]any{}})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"settings": map[string]any{"rate_register_point": shop.RegisterPointRate},
	})
}

type awardPointsRequest struct {
	CustomerID string `json:"customer_id"`
	Detail     string `json:"detail"`
	Points     int    `json:"points"`
}

func (s *Server) handleAwardPoints(w http.ResponseWriter, r *http.Request) {
	if _, err := s.authenticate(r); err != nil {
		httputil.WriteJSON(w, http.StatusUnauthorized, map[string]any{"message": "invalid credential"})
		return
	}

	var req awardPointsRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, map[string]any{"message": "malformed body"})
		return
	}
	if req.CustomerID == "" || req.Points <= 0 {
		httputil.WriteJSON(w, http.StatusUnprocessableEntity, map[string]any{"message": "customer_id and positive points are required"})
		return
	}

	s.mu.Lock()
	s.ledger = append(s.ledger, PointEntry{CustomerID: req.CustomerID, Detail: req.Detail, Points: req.Points})
	s.mu.Unlock()

	s.logger.Info("points recorded", "customer_id", req.CustomerID, "points", req.Points)
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// authenticate verifies the Bearer credential minted by handleIssueSession.
func (s *Server) authenticate(r *http.Request) (jwt.MapClaims, error) {
	header := r.Header.Get("Authorization")
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || raw == "" {
		return nil, fmt.Errorf("missing bearer credential")
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func (s *Server) customerRecord(c Customer) map[string]any {
	rec := map[string]any{
		"id":          c.ID,
		"name":        c.Name,
		"avatar":      c.Avatar,
		"phone":       c.Phone,
		"created_via": c.CreatedVia,
	}
	if c.ShopID != "" {
		rec["shop_id"] = c.ShopID
	}
	if c.BranchID != "" {
		rec["branch_id"] = c.BranchID
	}
	return rec
}
