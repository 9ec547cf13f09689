// Package stub is an in-memory helpdesk backend for local development and
// demos. It speaks the same tenant-scoped REST surface as the production
// API: credentials are bcrypt-checked, tokens are real signed JWTs, and all
// data lives in memory for the life of the process.
package stub

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/crowndesk/crowndesk/internal/domain/category"
	"github.com/crowndesk/crowndesk/internal/domain/tenant"
	"github.com/crowndesk/crowndesk/internal/domain/ticket"
	"github.com/crowndesk/crowndesk/internal/domain/user"
)

type account struct {
	user         user.User
	passwordHash []byte
}

// Server holds the stub's in-memory state.
type Server struct {
	secret []byte

	mu         sync.Mutex
	tenants    map[string]*tenant.Tenant // by slug
	accounts   map[string][]account      // by tenant slug
	tickets    map[string][]ticket.Ticket
	categories map[string][]category.Category
	nextNumber int
}

// New creates a stub server with seeded demo data. secret signs the issued
// tokens.
func New(secret string) *Server {
	s := &Server{
		secret:     []byte(secret),
		tenants:    make(map[string]*tenant.Tenant),
		accounts:   make(map[string][]account),
		tickets:    make(map[string][]ticket.Ticket),
		categories: make(map[string][]category.Category),
		nextNumber: 1,
	}
	s.seed()
	return s
}

// Router builds the HTTP surface.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(15 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/{slug}", func(r chi.Router) {
		r.Post("/auth/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Get("/auth/me", s.handleMe)
			r.Get("/tickets", s.handleListTickets)
			r.Post("/tickets", s.handleCreateTicket)
			r.Get("/tickets/{id}", s.handleGetTicket)
			r.Patch("/tickets/{id}", s.handleUpdateTicket)
			r.Get("/ticket-category", s.handleListCategories)
			r.Get("/tenants", s.handleListTenants)
		})
	})
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("stub helpdesk API listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// --- auth ---

type claimsKey struct{}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if raw == "" || raw == r.Header.Get("Authorization") {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		claims := &user.TokenClaims{}
		_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return s.secret, nil
		})
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		if claims.TenantSlug != chi.URLParam(r, "slug") {
			writeError(w, http.StatusUnauthorized, "token is for another tenant")
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestClaims(r *http.Request) *user.TokenClaims {
	c, _ := r.Context().Value(claimsKey{}).(*user.TokenClaims)
	return c
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	var req user.LoginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	ten, ok := s.tenants[slug]
	accounts := s.accounts[slug]
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "tenant not found")
		return
	}

	for _, acc := range accounts {
		if !strings.EqualFold(acc.user.Email, req.Email) {
			continue
		}
		if bcrypt.CompareHashAndPassword(acc.passwordHash, []byte(req.Password)) != nil {
			break
		}
		token, err := s.issueToken(acc.user, ten)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to issue token")
			return
		}
		writeJSON(w, http.StatusOK, user.LoginResponse{AccessToken: token, User: acc.user})
		return
	}
	writeError(w, http.StatusUnauthorized, "invalid credentials")
}

func (s *Server) issueToken(u user.User, ten *tenant.Tenant) (string, error) {
	now := time.Now()
	claims := user.TokenClaims{
		UserID:     u.ID,
		TenantID:   ten.ID,
		TenantSlug: ten.Slug,
		TenantType: ten.Type,
		Role:       u.Role,
		Email:      u.Email,
		Brand:      ten.Brand,
		Segment:    string(ten.Segment),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(24 * time.Hour)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	claims := requestClaims(r)
	slug := chi.URLParam(r, "slug")

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, acc := range s.accounts[slug] {
		if acc.user.ID == claims.UserID {
			writeJSON(w, http.StatusOK, acc.user)
			return
		}
	}
	writeError(w, http.StatusNotFound, "user not found")
}

// --- tickets ---

func (s *Server) handleListTickets(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ticket.Ticket, len(s.tickets[slug]))
	copy(out, s.tickets[slug])
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetTicket(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tickets[slug] {
		if s.tickets[slug][i].ID == id {
			writeJSON(w, http.StatusOK, s.tickets[slug][i])
			return
		}
	}
	writeError(w, http.StatusNotFound, "ticket not found")
}

func (s *Server) handleCreateTicket(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	claims := requestClaims(r)

	var req ticket.CreateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	now := time.Now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()

	tk := ticket.Ticket{
		ID:          uuid.NewString(),
		Number:      s.nextNumber,
		Title:       req.Title,
		Description: req.Description,
		Status:      ticket.StatusOpen,
		Priority:    req.Priority,
		Category:    s.findCategory(slug, req.CategoryID),
		DueDate:     req.DueDate,
		GuestName:   req.GuestName,
		GuestEmail:  req.GuestEmail,
		GuestPhone:  req.GuestPhone,
		TenantID:    claims.TenantID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.nextNumber++
	s.tickets[slug] = append(s.tickets[slug], tk)
	writeJSON(w, http.StatusCreated, tk)
}

func (s *Server) handleUpdateTicket(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	id := chi.URLParam(r, "id")

	var req ticket.UpdateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !ticket.ValidStatuses[req.Status] {
		writeError(w, http.StatusUnprocessableEntity, "invalid status")
		return
	}
	if !ticket.ValidPriorities[req.Priority] {
		writeError(w, http.StatusUnprocessableEntity, "invalid priority")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tickets[slug] {
		tk := &s.tickets[slug][i]
		if tk.ID != id {
			continue
		}
		tk.Title = req.Title
		tk.Description = req.Description
		tk.Priority = req.Priority
		tk.Status = req.Status
		tk.Category = s.findCategory(slug, req.CategoryID)
		tk.DueDate = req.DueDate
		tk.GuestName = req.GuestName
		tk.GuestEmail = req.GuestEmail
		tk.GuestPhone = req.GuestPhone
		tk.UpdatedAt = time.Now().UTC()
		writeJSON(w, http.StatusOK, *tk)
		return
	}
	writeError(w, http.StatusNotFound, "ticket not found")
}

// findCategory looks up a tenant category by id. Caller holds s.mu.
func (s *Server) findCategory(slug, id string) *category.Category {
	for i := range s.categories[slug] {
		if s.categories[slug][i].ID == id {
			c := s.categories[slug][i]
			return &c
		}
	}
	return nil
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]category.Category, len(s.categories[slug]))
	copy(out, s.categories[slug])
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListTenants(w http.ResponseWriter, r *http.Request) {
	claims := requestClaims(r)

	s.mu.Lock()
	defer s.mu.Unlock()

	var out []tenant.Tenant
	for _, ten := range s.tenants {
		switch {
		case claims.Role == user.RoleCrownAdmin:
			out = append(out, *ten)
		case ten.ID == claims.TenantID:
			out = append(out, *ten)
		case claims.Role == user.RoleFranchisorAdmin && ten.Parent != nil && ten.Parent.ID == claims.TenantID:
			out = append(out, *ten)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// --- response helpers ---

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to write JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
