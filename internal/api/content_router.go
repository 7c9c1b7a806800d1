package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/safehaven/safehaven-api/internal/middleware"
	"github.com/safehaven/safehaven-api/internal/services"
)

func (rt *Router) registerContent(apiRoutes *mux.Router) {
	if rt.articles != nil {
		ar := apiRoutes.PathPrefix("/articles").Subrouter()
		ar.HandleFunc("", rt.handleListArticles).Methods(http.MethodGet)
		ar.HandleFunc("/slug/{slug}", rt.handleGetArticleBySlug).Methods(http.MethodGet)
		ar.HandleFunc("/{id}", rt.handleGetArticle).Methods(http.MethodGet)
		ar.Handle("", rt.protect(rt.handleCreateArticle)).Methods(http.MethodPost)
		ar.Handle("/{id}", rt.protect(rt.handleUpdateArticle)).Methods(http.MethodPatch)
		ar.Handle("/{id}", rt.protect(rt.handleDeleteArticle)).Methods(http.MethodDelete)
	}

	if rt.helpCenters != nil {
		hc := apiRoutes.PathPrefix("/help-centers").Subrouter()
		hc.Handle("", rt.protect(rt.handleCreateHelpCenter)).Methods(http.MethodPost)
		hc.Handle("", rt.protect(rt.handleListHelpCenters)).Methods(http.MethodGet)
		hc.Handle("/{id}", rt.protect(rt.handleGetHelpCenter)).Methods(http.MethodGet)
		hc.Handle("/{id}", rt.protect(rt.handleUpdateHelpCenter)).Methods(http.MethodPatch)
		hc.Handle("/{id}", rt.protect(rt.handleDeleteHelpCenter)).Methods(http.MethodDelete)
	}

	if rt.stories != nil {
		st := apiRoutes.PathPrefix("/user-story").Subrouter()
		// Fixed segments must precede {id}.
		st.Handle("/statistics", rt.protect(rt.handleStoryStatistics)).Methods(http.MethodGet)
		st.Handle("/type/{type}", rt.protect(rt.handleStoriesByType)).Methods(http.MethodGet)
		st.Handle("/user/{userId}", rt.protect(rt.handleStoriesByUser)).Methods(http.MethodGet)
		st.Handle("", rt.protect(rt.handleCreateStory)).Methods(http.MethodPost)
		st.Handle("", rt.protect(rt.handleListStories)).Methods(http.MethodGet)
		st.Handle("/{id}", rt.protect(rt.handleGetStory)).Methods(http.MethodGet)
		st.Handle("/{id}", rt.protect(rt.handleUpdateStory)).Methods(http.MethodPatch)
		st.Handle("/{id}", rt.protect(rt.handleDeleteStory)).Methods(http.MethodDelete)
	}

	if rt.testimonials != nil {
		tm := apiRoutes.PathPrefix("/testimonial").Subrouter()
		tm.HandleFunc("/published", rt.handlePublishedTestimonials).Methods(http.MethodGet)
		tm.Handle("/statistics", rt.protect(rt.handleTestimonialStatistics)).Methods(http.MethodGet)
		tm.Handle("/bulk-delete", rt.protect(rt.handleBulkDeleteTestimonials)).Methods(http.MethodPost)
		tm.Handle("", rt.protect(rt.handleCreateTestimonial)).Methods(http.MethodPost)
		tm.Handle("", rt.protect(rt.handleListTestimonials)).Methods(http.MethodGet)
		tm.Handle("/{id}/toggle-publish", rt.protect(rt.handleToggleTestimonial)).Methods(http.MethodPatch)
		tm.Handle("/{id}", rt.protect(rt.handleGetTestimonial)).Methods(http.MethodGet)
		tm.Handle("/{id}", rt.protect(rt.handleUpdateTestimonial)).Methods(http.MethodPatch)
		tm.Handle("/{id}", rt.protect(rt.handleDeleteTestimonial)).Methods(http.MethodDelete)
	}
}

// queryInt reads an optional integer parameter; absent means 0.
func queryInt(r *http.Request, name string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, services.NewInvalidError(name + " must be an integer")
	}
	return n, nil
}

// pageQuery reads skip, take, orderBy and order. Order defaults to desc.
func pageQuery(r *http.Request) (services.PageOptions, error) {
	var p services.PageOptions
	var err error
	if p.Skip, err = queryInt(r, "skip"); err != nil {
		return p, err
	}
	if p.Take, err = queryInt(r, "take"); err != nil {
		return p, err
	}
	p.OrderBy = r.URL.Query().Get("orderBy")
	switch strings.ToLower(r.URL.Query().Get("order")) {
	case "", "desc":
		p.Desc = true
	case "asc":
	default:
		return p, services.NewInvalidError("order must be asc or desc")
	}
	return p, nil
}

func currentUser(r *http.Request) *services.User {
	u, _ := middleware.UserFromContext(r.Context())
	return u
}

// --- article handlers ---

func (rt *Router) handleListArticles(w http.ResponseWriter, r *http.Request) {
	list, err := rt.articles.List(r.Context(), services.ArticleFilter{Published: parseBoolQuery(r, "published")})
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (rt *Router) handleGetArticle(w http.ResponseWriter, r *http.Request) {
	a, err := rt.articles.Get(r.Context(), pathID(r))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (rt *Router) handleGetArticleBySlug(w http.ResponseWriter, r *http.Request) {
	a, err := rt.articles.GetBySlug(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (rt *Router) handleCreateArticle(w http.ResponseWriter, r *http.Request) {
	var req services.CreateArticleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		rt.writeError(w, r, err)
		return
	}
	a, err := rt.articles.Create(r.Context(), &req)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (rt *Router) handleUpdateArticle(w http.ResponseWriter, r *http.Request) {
	var req services.UpdateArticleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		rt.writeError(w, r, err)
		return
	}
	a, err := rt.articles.Update(r.Context(), pathID(r), &req)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (rt *Router) handleDeleteArticle(w http.ResponseWriter, r *http.Request) {
	if err := rt.articles.Delete(r.Context(), pathID(r)); err != nil {
		rt.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- help centre handlers ---

func (rt *Router) handleCreateHelpCenter(w http.ResponseWriter, r *http.Request) {
	var req services.CreateHelpCenterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		rt.writeError(w, r, err)
		return
	}
	h, err := rt.helpCenters.Create(r.Context(), &req)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, h)
}

func (rt *Router) handleListHelpCenters(w http.ResponseWriter, r *http.Request) {
	list, err := rt.helpCenters.List(r.Context(), services.HelpCenterFilter{IsActive: parseBoolQuery(r, "isActive")})
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (rt *Router) handleGetHelpCenter(w http.ResponseWriter, r *http.Request) {
	h, err := rt.helpCenters.Get(r.Context(), pathID(r))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h)
}

func (rt *Router) handleUpdateHelpCenter(w http.ResponseWriter, r *http.Request) {
	var req services.UpdateHelpCenterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		rt.writeError(w, r, err)
		return
	}
	h, err := rt.helpCenters.Update(r.Context(), pathID(r), &req)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h)
}

func (rt *Router) handleDeleteHelpCenter(w http.ResponseWriter, r *http.Request) {
	if err := rt.helpCenters.Delete(r.Context(), pathID(r)); err != nil {
		rt.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- story handlers ---

func (rt *Router) handleCreateStory(w http.ResponseWriter, r *http.Request) {
	var req services.CreateStoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		rt.writeError(w, r, err)
		return
	}
	st, err := rt.stories.Create(r.Context(), currentUser(r).ID, &req)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, st)
}

func (rt *Router) handleListStories(w http.ResponseWriter, r *http.Request) {
	page, err := pageQuery(r)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	res, err := rt.stories.List(r.Context(), services.StoryFilter{
		UserID:      q.Get("userId"),
		Type:        services.StoryType(q.Get("type")),
		PageOptions: page,
	})
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (rt *Router) handleStoryStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := rt.stories.Statistics(r.Context())
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (rt *Router) handleStoriesByType(w http.ResponseWriter, r *http.Request) {
	page, err := pageQuery(r)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	res, err := rt.stories.ByType(r.Context(), services.StoryType(mux.Vars(r)["type"]), page.Skip, page.Take)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (rt *Router) handleStoriesByUser(w http.ResponseWriter, r *http.Request) {
	page, err := pageQuery(r)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	res, err := rt.stories.ByUser(r.Context(), mux.Vars(r)["userId"], page.Skip, page.Take)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (rt *Router) handleGetStory(w http.ResponseWriter, r *http.Request) {
	st, err := rt.stories.Get(r.Context(), pathID(r))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (rt *Router) handleUpdateStory(w http.ResponseWriter, r *http.Request) {
	var req services.UpdateStoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		rt.writeError(w, r, err)
		return
	}
	st, err := rt.stories.Update(r.Context(), currentUser(r).ID, pathID(r), &req)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (rt *Router) handleDeleteStory(w http.ResponseWriter, r *http.Request) {
	if err := rt.stories.Delete(r.Context(), currentUser(r).ID, pathID(r)); err != nil {
		rt.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- testimonial handlers ---

func (rt *Router) handlePublishedTestimonials(w http.ResponseWriter, r *http.Request) {
	page, err := pageQuery(r)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	res, err := rt.testimonials.Published(r.Context(), page.Skip, page.Take)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (rt *Router) handleListTestimonials(w http.ResponseWriter, r *http.Request) {
	page, err := pageQuery(r)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	res, err := rt.testimonials.List(r.Context(), services.TestimonialFilter{
		Published:   parseBoolQuery(r, "published"),
		AdminID:     r.URL.Query().Get("adminId"),
		PageOptions: page,
	})
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (rt *Router) handleCreateTestimonial(w http.ResponseWriter, r *http.Request) {
	var req services.CreateTestimonialRequest
	if err := decodeJSON(w, r, &req); err != nil {
		rt.writeError(w, r, err)
		return
	}
	t, err := rt.testimonials.Create(r.Context(), currentUser(r).ID, &req)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (rt *Router) handleTestimonialStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := rt.testimonials.Statistics(r.Context())
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

type bulkDeleteRequest struct {
	IDs []string `json:"ids"`
}

func (rt *Router) handleBulkDeleteTestimonials(w http.ResponseWriter, r *http.Request) {
	var req bulkDeleteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		rt.writeError(w, r, err)
		return
	}
	n, err := rt.testimonials.BulkDelete(r.Context(), req.IDs)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"deleted": n})
}

func (rt *Router) handleGetTestimonial(w http.ResponseWriter, r *http.Request) {
	t, err := rt.testimonials.Get(r.Context(), pathID(r))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (rt *Router) handleUpdateTestimonial(w http.ResponseWriter, r *http.Request) {
	var req services.UpdateTestimonialRequest
	if err := decodeJSON(w, r, &req); err != nil {
		rt.writeError(w, r, err)
		return
	}
	t, err := rt.testimonials.Update(r.Context(), pathID(r), &req)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (rt *Router) handleToggleTestimonial(w http.ResponseWriter, r *http.Request) {
	t, err := rt.testimonials.TogglePublish(r.Context(), pathID(r))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (rt *Router) handleDeleteTestimonial(w http.ResponseWriter, r *http.Request) {
	if err := rt.testimonials.Delete(r.Context(), pathID(r)); err != nil {
		rt.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
