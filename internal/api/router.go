package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/safehaven/safehaven-api/internal/middleware"
	"github.com/safehaven/safehaven-api/internal/services"
)

const maxBodyBytes = 1 << 20

// Services bundles what the HTTP layer serves. Assessments and Auth are
// required; content routes are mounted only for the services that are set.
type Services struct {
	Assessments  *services.AssessmentService
	Auth         *services.AuthService
	Articles     *services.ArticleService
	HelpCenters  *services.HelpCenterService
	Stories      *services.StoryService
	Testimonials *services.TestimonialService
}

type Router struct {
	assessments  *services.AssessmentService
	auth         *services.AuthService
	articles     *services.ArticleService
	helpCenters  *services.HelpCenterService
	stories      *services.StoryService
	testimonials *services.TestimonialService
	log          *zap.Logger
}

func NewRouter(svc Services, log *zap.Logger) *Router {
	if log == nil {
		log = zap.NewNop()
	}
	return &Router{
		assessments:  svc.Assessments,
		auth:         svc.Auth,
		articles:     svc.Articles,
		helpCenters:  svc.HelpCenters,
		stories:      svc.Stories,
		testimonials: svc.Testimonials,
		log:          log,
	}
}

func (rt *Router) Register(r *mux.Router) {
	apiRoutes := r.PathPrefix("/api").Subrouter()

	a := apiRoutes.PathPrefix("/assessment").Subrouter()
	// Public routes. list/active must precede user/{id}.
	a.HandleFunc("/user/list/active", rt.handleListActive).Methods(http.MethodGet)
	a.HandleFunc("/user/{id}", rt.handleGetForUser).Methods(http.MethodGet)
	a.HandleFunc("/{id}/submit", rt.handleSubmit).Methods(http.MethodPost)

	// Admin routes.
	a.Handle("", rt.protect(rt.handleCreate)).Methods(http.MethodPost)
	a.Handle("/admin/all", rt.protect(rt.handleListAll)).Methods(http.MethodGet)
	a.Handle("/admin/{id}", rt.protect(rt.handleGetAdmin)).Methods(http.MethodGet)
	a.Handle("/{id}/statistics", rt.protect(rt.handleStatistics)).Methods(http.MethodGet)
	a.Handle("/{id}/toggle-active", rt.protect(rt.handleToggleActive)).Methods(http.MethodPatch)
	a.Handle("/{id}", rt.protect(rt.handleUpdate)).Methods(http.MethodPatch)
	a.Handle("/{id}", rt.protect(rt.handleDelete)).Methods(http.MethodDelete)

	u := apiRoutes.PathPrefix("/users").Subrouter()
	u.Handle("/me", rt.protect(rt.handleMe)).Methods(http.MethodGet)
	u.Handle("/me", rt.protect(rt.handleUpdateMe)).Methods(http.MethodPut)
	u.Handle("/me", rt.protect(rt.handleDeleteMe)).Methods(http.MethodDelete)

	rt.registerContent(apiRoutes)
}

func (rt *Router) protect(h http.HandlerFunc) http.Handler {
	return middleware.WithAuth(rt.auth)(middleware.RequireUser(h))
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func statusFor(code services.ErrorCode) int {
	switch code {
	case services.ErrorInvalid, services.ErrorNotActive, services.ErrorUnknownQuestion, services.ErrorUnknownOption:
		return http.StatusBadRequest
	case services.ErrorMisconfigured:
		return http.StatusUnprocessableEntity
	case services.ErrorNotFound:
		return http.StatusNotFound
	case services.ErrorUnauthorized:
		return http.StatusUnauthorized
	case services.ErrorForbidden:
		return http.StatusForbidden
	case services.ErrorConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (rt *Router) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code, msg := "internal", "internal server error"
	status := http.StatusInternalServerError
	if se, ok := services.AsServiceError(err); ok {
		code, msg, status = string(se.Code), se.Message, statusFor(se.Code)
	} else {
		rt.log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
	writeJSON(w, status, map[string]any{"error": map[string]string{"code": code, "message": msg}})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return services.NewInvalidError("request body required")
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return services.NewInvalidError("request body too large")
		}
		return services.NewInvalidError(fmt.Sprintf("invalid JSON: %v", err))
	}
	return nil
}

// parseBoolQuery accepts only "true" and "false"; anything else is unset.
func parseBoolQuery(r *http.Request, name string) *bool {
	switch strings.ToLower(r.URL.Query().Get(name)) {
	case "true":
		v := true
		return &v
	case "false":
		v := false
		return &v
	}
	return nil
}

func pathID(r *http.Request) string { return mux.Vars(r)["id"] }

// --- public handlers ---

func (rt *Router) handleListActive(w http.ResponseWriter, r *http.Request) {
	list, err := rt.assessments.ListActive(r.Context())
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (rt *Router) handleGetForUser(w http.ResponseWriter, r *http.Request) {
	view, err := rt.assessments.GetForUser(r.Context(), pathID(r))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type submitRequest struct {
	Answers []services.Answer `json:"answers"`
}

func (rt *Router) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		rt.writeError(w, r, err)
		return
	}
	res, err := rt.assessments.Submit(r.Context(), pathID(r), req.Answers)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// --- admin handlers ---

func (rt *Router) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req services.CreateAssessmentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		rt.writeError(w, r, err)
		return
	}
	a, err := rt.assessments.Create(r.Context(), &req)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (rt *Router) handleListAll(w http.ResponseWriter, r *http.Request) {
	filter := services.AssessmentFilter{IsActive: parseBoolQuery(r, "isActive")}
	if v := parseBoolQuery(r, "includeDetails"); v != nil {
		filter.IncludeDetails = *v
	}
	list, err := rt.assessments.List(r.Context(), filter)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	if filter.IncludeDetails {
		writeJSON(w, http.StatusOK, list)
		return
	}
	out := make([]services.AssessmentSummary, 0, len(list))
	for _, a := range list {
		out = append(out, services.Summarize(a))
	}
	writeJSON(w, http.StatusOK, out)
}

func (rt *Router) handleGetAdmin(w http.ResponseWriter, r *http.Request) {
	a, err := rt.assessments.Get(r.Context(), pathID(r))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (rt *Router) handleStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := rt.assessments.Statistics(r.Context(), pathID(r))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (rt *Router) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req services.UpdateAssessmentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		rt.writeError(w, r, err)
		return
	}
	a, err := rt.assessments.Update(r.Context(), pathID(r), &req)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (rt *Router) handleToggleActive(w http.ResponseWriter, r *http.Request) {
	a, err := rt.assessments.ToggleActive(r.Context(), pathID(r))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (rt *Router) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := rt.assessments.Delete(r.Context(), pathID(r)); err != nil {
		rt.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- account handlers ---

func (rt *Router) handleMe(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.UserFromContext(r.Context())
	writeJSON(w, http.StatusOK, u)
}

type updateProfileRequest struct {
	DisplayName *string `json:"displayName"`
	PhotoURL    *string `json:"photoUrl"`
}

func (rt *Router) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.UserFromContext(r.Context())
	var req updateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		rt.writeError(w, r, err)
		return
	}
	updated, err := rt.auth.UpdateProfile(r.Context(), u.ProviderUID, req.DisplayName, req.PhotoURL)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (rt *Router) handleDeleteMe(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.UserFromContext(r.Context())
	if err := rt.auth.DeleteUser(r.Context(), u.ProviderUID); err != nil {
		rt.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HealthHandler reports liveness and whether the store answers a ping.
func HealthHandler(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store != nil {
			if err := store.Ping(r.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// VersionHandler reports build metadata.
func VersionHandler(commit, buildTime string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"commit": commit, "build_time": buildTime})
	}
}
