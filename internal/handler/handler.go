package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/mtlprog/teamtask/internal/domain"
	"github.com/mtlprog/teamtask/internal/handler/dto"
	"github.com/mtlprog/teamtask/internal/middleware"
	"github.com/mtlprog/teamtask/internal/service"
	"github.com/mtlprog/teamtask/internal/static"
)

// maxUploadMemory bounds the multipart form kept in memory; larger parts spill to disk.
const maxUploadMemory = 1 << 20

// Deps are the collaborators of the HTTP handlers.
type Deps struct {
	Tasks         *service.TaskService
	Notifications *service.NotificationService
	Users         middleware.UserFinder
	// Health reports whether backing services are reachable. Nil means always healthy.
	Health func(ctx context.Context) error
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	tasks          *service.TaskService
	notifications  *service.NotificationService
	health         func(ctx context.Context) error
	authMiddleware *middleware.AuthMiddleware
	now            func() time.Time
}

// New creates a new Handler instance with all dependencies.
func New(deps Deps) *Handler {
	return &Handler{
		tasks:          deps.Tasks,
		notifications:  deps.Notifications,
		health:         deps.Health,
		authMiddleware: middleware.NewAuthMiddleware(deps.Users),
		now:            time.Now,
	}
}

// Routes returns the instrumented router serving every endpoint.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	return middleware.Instrument(mux)
}

// RegisterRoutes registers all HTTP routes.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.handleHealthz)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /api.md", h.handleAPIMd)

	// Swagger UI
	mux.HandleFunc("GET /openapi.json", h.handleOpenAPI)
	mux.HandleFunc("GET /swagger/", httpSwagger.Handler(httpSwagger.URL("/openapi.json")))

	auth := func(fn http.HandlerFunc) http.Handler {
		return h.authMiddleware.Authenticate(fn)
	}

	// Tasks
	mux.Handle("GET /api/v1/projects/{id}/tasks", auth(h.handleProjectBoard))
	mux.Handle("POST /api/v1/projects/{id}/tasks", auth(h.handleCreateTask))
	mux.Handle("GET /api/v1/me/tasks", auth(h.handleMyTasks))
	mux.Handle("GET /api/v1/tasks/{id}", auth(h.handleGetTask))
	mux.Handle("PATCH /api/v1/tasks/{id}", auth(h.handleUpdateTask))
	mux.Handle("DELETE /api/v1/tasks/{id}", auth(h.handleDeleteTask))
	mux.Handle("PATCH /api/v1/tasks/{id}/status", auth(h.handleChangeStatus))
	mux.Handle("POST /api/v1/tasks/{id}/comments", auth(h.handleAddComment))
	mux.Handle("POST /api/v1/tasks/{id}/attachments", auth(h.handleAddAttachment))
	mux.Handle("DELETE /api/v1/attachments/{id}", auth(h.handleDeleteAttachment))

	// Notifications
	mux.Handle("GET /api/v1/notifications", auth(h.handleListNotifications))
	mux.Handle("GET /api/v1/notifications/unread-count", auth(h.handleUnreadCount))
	mux.Handle("POST /api/v1/notifications/read-all", auth(h.handleMarkAllRead))
	mux.Handle("POST /api/v1/notifications/{id}/read", auth(h.handleMarkRead))
	mux.Handle("DELETE /api/v1/notifications/{id}", auth(h.handleDeleteNotification))
}

// handleHealthz returns 200 OK if the backing services are reachable.
func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health(r.Context()); err != nil {
			slog.Error("health check failed", "error", err)
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
}

// handleAPIMd serves the embedded API reference.
func (h *Handler) handleAPIMd(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(static.APIMd)); err != nil {
		slog.Error("failed to write api.md", "error", err)
	}
}

// handleOpenAPI serves the embedded Swagger document.
func (h *Handler) handleOpenAPI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(static.OpenAPIJSON); err != nil {
		slog.Error("failed to write openapi.json", "error", err)
	}
}

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// respondError writes a standard error response.
func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, dto.NewErrorResponse(code, message))
}

// respondDomainError maps a service error to a response.
func respondDomainError(w http.ResponseWriter, err error) {
	status, body := dto.MapDomainError(err)
	respondJSON(w, status, body)
}

// requireActor extracts the authenticated actor or writes 401.
func requireActor(w http.ResponseWriter, r *http.Request) (domain.ActorContext, bool) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Authentication required")
		return domain.ActorContext{}, false
	}
	return actor, true
}

// extractID extracts and validates the {id} path parameter.
// Returns ("", false) if invalid (error already sent to client).
func extractID(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	id := r.PathValue("id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", name+" id is required")
		return "", false
	}

	if _, err := uuid.Parse(id); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", name+"_id must be a valid UUID")
		return "", false
	}

	return id, true
}

// decodeJSON reads the request body into dst or writes 400.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return false
	}
	return true
}
