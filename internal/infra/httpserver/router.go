package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/unrolled/secure"

	appdocs "github.com/swethakommuri/GEN-AI-DEMO/internal/application/documents"
	appinsights "github.com/swethakommuri/GEN-AI-DEMO/internal/application/insights"
	"github.com/swethakommuri/GEN-AI-DEMO/internal/application/sessions"
	"github.com/swethakommuri/GEN-AI-DEMO/internal/domain/audit"
	"github.com/swethakommuri/GEN-AI-DEMO/internal/domain/clients"
	"github.com/swethakommuri/GEN-AI-DEMO/internal/domain/documents"
	"github.com/swethakommuri/GEN-AI-DEMO/internal/domain/roles"
	"github.com/swethakommuri/GEN-AI-DEMO/internal/metrics"
	"github.com/swethakommuri/GEN-AI-DEMO/internal/middleware"
)

// maxUploadBytes bounds multipart uploads.
const maxUploadBytes = 10 << 20

const maxWorkers = 8

var (
	errBadRequest = errors.New("bad request")
	errNoAudit    = errors.New("no audit store configured")
)

// ModelCatalog lists generation models.
type ModelCatalog interface {
	Models(ctx context.Context) ([]string, error)
}

// Deps are the services the router serves. Audit and Exporter may be nil.
type Deps struct {
	Sessions  *sessions.Registry
	Roles     *roles.Table
	Clients   *clients.Catalog
	Documents *appdocs.Service
	Insights  *appinsights.Service
	Models    ModelCatalog
	Exporter  *appinsights.Exporter
	Audit     audit.Repository
	Metrics   *metrics.Metrics
	Logger    *slog.Logger

	JWTSecret      []byte
	AllowedOrigins []string
	ReadyChecks    map[string]middleware.HealthChecker

	DefaultModel       string
	Workers            int
	MaxRetries         int
	Timeout            time.Duration
	RateLimitPerMinute int
}

type Router struct {
	Deps
}

func NewRouter(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	r := &Router{Deps: d}
	mux := chi.NewRouter()

	mux.Use(chimw.RequestID)
	mux.Use(chimw.RealIP)
	mux.Use(middleware.RequestLogger(d.Logger))
	mux.Use(chimw.Recoverer)
	mux.Use(middleware.Metrics(d.Metrics))
	mux.Use(secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
	}).Handler)
	if len(d.AllowedOrigins) > 0 {
		mux.Use(cors.Handler(cors.Options{
			AllowedOrigins:   d.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: true,
		}))
	}

	mux.Get("/health", middleware.LivenessHandler)
	mux.Get("/ready", middleware.ReadinessHandler(d.ReadyChecks))
	if d.Metrics != nil {
		mux.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	limit := d.RateLimitPerMinute
	if limit <= 0 {
		limit = 10
	}

	mux.Route("/v1", func(rt chi.Router) {
		rt.Use(middleware.JWTAuth(d.JWTSecret, d.Roles))

		rt.Get("/me", r.wrap(r.handleMe))
		rt.Get("/clients", r.wrap(r.handleClients))
		rt.Get("/models", r.wrap(r.handleModels))

		rt.Post("/documents", r.wrap(r.handleUpload))
		rt.Get("/documents", r.wrap(r.handleSearch))
		rt.Get("/documents/recent", r.wrap(r.handleRecent))

		rt.With(middleware.RateLimit(limit, time.Minute)).Post("/insights", r.wrap(r.handleGenerate))
		rt.Get("/insights", r.wrap(r.handleHistory))
		rt.Post("/insights/export", r.wrap(r.handleExport))

		rt.With(middleware.RequirePermission(roles.PermAuditTrails)).Get("/audit", r.wrap(r.handleAudit))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			r.Logger.ErrorContext(req.Context(), "request failed",
				"path", req.URL.Path, "request_id", chimw.GetReqID(req.Context()), "error", err)
		}
		writeJSON(w, status, map[string]string{"error": err.Error()})
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, documents.ErrPermissionDenied), errors.Is(err, roles.ErrUnknownRole):
		return http.StatusForbidden
	case errors.Is(err, documents.ErrInvalidUpload),
		errors.Is(err, appinsights.ErrUnknownKind),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, clients.ErrUnknownClient):
		return http.StatusNotFound
	case errors.Is(err, appinsights.ErrNoArchive), errors.Is(err, errNoAudit):
		return http.StatusNotImplemented
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	// template errors are configuration faults
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

func identity(req *http.Request) (middleware.Identity, error) {
	id, ok := middleware.IdentityFrom(req.Context())
	if !ok {
		return middleware.Identity{}, roles.ErrUnknownRole
	}
	return id, nil
}

// GET /v1/me
func (r *Router) handleMe(w http.ResponseWriter, req *http.Request) error {
	id, err := identity(req)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{
		"session_id":  id.SessionID,
		"role":        id.Role.Name,
		"permissions": id.Role.Permissions,
		"widgets":     id.Role.Widgets,
		"kinds":       id.Role.Kinds(),
		"clients":     clientNames(r.Clients.VisibleTo(id.Role)),
	})
}

// GET /v1/clients
func (r *Router) handleClients(w http.ResponseWriter, req *http.Request) error {
	id, err := identity(req)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, r.Clients.VisibleTo(id.Role))
}

// GET /v1/models
func (r *Router) handleModels(w http.ResponseWriter, req *http.Request) error {
	models, err := r.Models.Models(req.Context())
	if err != nil {
		return writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"models": []string{},
			"error":  err.Error(),
		})
	}
	return writeJSON(w, http.StatusOK, map[string]any{"models": models, "default": r.DefaultModel})
}

// POST /v1/documents (multipart: file, client, document_type, roles...)
func (r *Router) handleUpload(w http.ResponseWriter, req *http.Request) error {
	id, err := identity(req)
	if err != nil {
		return err
	}
	if !id.Role.HasPermission(roles.PermUploadDocuments) {
		return fmt.Errorf("%w: %s", documents.ErrPermissionDenied, id.Role.Name)
	}

	req.Body = http.MaxBytesReader(w, req.Body, maxUploadBytes)
	if err := req.ParseMultipartForm(maxUploadBytes); err != nil {
		return fmt.Errorf("%w: %v", documents.ErrInvalidUpload, err)
	}
	file, header, err := req.FormFile("file")
	if err != nil {
		return fmt.Errorf("%w: file is required", documents.ErrInvalidUpload)
	}
	defer file.Close()
	payload, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("%w: %v", documents.ErrInvalidUpload, err)
	}

	allowed := req.MultipartForm.Value["roles"]
	if len(allowed) == 0 {
		allowed = []string{id.Role.Name}
	}
	cmd := appdocs.UploadCommand{
		FileName:     header.Filename,
		Payload:      payload,
		Client:       middleware.SanitizeString(req.FormValue("client")),
		DocumentType: middleware.SanitizeString(req.FormValue("document_type")),
		AllowedRoles: allowed,
		Uploader:     id.Role,
	}
	sess := r.Sessions.Get(id.SessionID)
	docID, err := r.Documents.Upload(req.Context(), sess.Documents, cmd)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, map[string]any{
		"id":            docID,
		"file_name":     header.Filename,
		"document_type": cmd.DocumentType,
		"client_name":   cmd.Client,
		"roles_allowed": cmd.AllowedRoles,
	})
}

// GET /v1/documents?q=&client=
func (r *Router) handleSearch(w http.ResponseWriter, req *http.Request) error {
	id, err := identity(req)
	if err != nil {
		return err
	}
	q := middleware.SanitizeString(req.URL.Query().Get("q"))
	client := req.URL.Query().Get("client")
	sess := r.Sessions.Get(id.SessionID)
	docs, err := r.Documents.Search(req.Context(), sess.Documents, q, client, id.Role)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, nonNil(docs))
}

// GET /v1/documents/recent?limit=
func (r *Router) handleRecent(w http.ResponseWriter, req *http.Request) error {
	id, err := identity(req)
	if err != nil {
		return err
	}
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	limit = middleware.ValidateLimit(limit, appdocs.DefaultRecent, 50)
	sess := r.Sessions.Get(id.SessionID)
	docs, err := r.Documents.Recent(req.Context(), sess.Documents, id.Role, limit)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, nonNil(docs))
}

type generateBody struct {
	Client             string   `json:"client"`
	Model              string   `json:"model"`
	UseKnowledgeBase   bool     `json:"use_knowledge_base"`
	Kinds              []string `json:"kinds"`
	CustomInstructions string   `json:"custom_instructions"`
	Workers            int      `json:"workers"`
}

// POST /v1/insights
func (r *Router) handleGenerate(w http.ResponseWriter, req *http.Request) error {
	id, err := identity(req)
	if err != nil {
		return err
	}
	var body generateBody
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if body.Client == "" {
		return fmt.Errorf("%w: client is required", errBadRequest)
	}
	client, err := r.Clients.Lookup(body.Client, id.Role)
	if err != nil {
		return err
	}
	model := body.Model
	if model == "" {
		model = r.DefaultModel
	}
	workers := body.Workers
	if workers <= 0 {
		workers = r.Workers
	}
	workers = min(workers, maxWorkers)

	sess := r.Sessions.Get(id.SessionID)
	batch, err := r.Insights.GenerateConcurrent(req.Context(), appinsights.Request{
		SessionID:          id.SessionID,
		Role:               id.Role,
		Client:             client,
		Model:              model,
		UseKnowledgeBase:   body.UseKnowledgeBase,
		Knowledge:          sess.Documents,
		Kinds:              body.Kinds,
		CustomInstructions: middleware.SanitizeString(body.CustomInstructions),
		MaxRetries:         r.MaxRetries,
		Timeout:            r.Timeout,
	}, workers)
	if err != nil {
		return err
	}
	if batch.Unavailable {
		return writeJSON(w, http.StatusServiceUnavailable, batch)
	}
	sess.Record(batch)
	return writeJSON(w, http.StatusOK, batch)
}

// GET /v1/insights
func (r *Router) handleHistory(w http.ResponseWriter, req *http.Request) error {
	id, err := identity(req)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, nonNil(r.Sessions.Get(id.SessionID).History()))
}

// POST /v1/insights/export
func (r *Router) handleExport(w http.ResponseWriter, req *http.Request) error {
	id, err := identity(req)
	if err != nil {
		return err
	}
	history := r.Sessions.Get(id.SessionID).History()
	location, err := r.Exporter.Export(req.Context(), id.SessionID, id.Role.Name, history)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, map[string]any{"location": location, "insights": len(history)})
}

// GET /v1/audit?client=&page=&page_size=
func (r *Router) handleAudit(w http.ResponseWriter, req *http.Request) error {
	if r.Audit == nil {
		return errNoAudit
	}
	page, _ := strconv.Atoi(req.URL.Query().Get("page"))
	size, _ := strconv.Atoi(req.URL.Query().Get("page_size"))
	list, err := r.Audit.Paginate(req.Context(), req.URL.Query().Get("client"), page, middleware.ValidateLimit(size, 20, 100))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, nonNil(list))
}

func clientNames(ps []clients.Profile) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Name)
	}
	return out
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
