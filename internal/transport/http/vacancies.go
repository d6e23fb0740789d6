package httptransport

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"vacancy-pipeline/internal/entity"
	"vacancy-pipeline/internal/search"
)

const (
	timeLayout = time.RFC3339
	dateLayout = "2006-01-02"
)

type listResp struct {
	Results []entity.Vacancy `json:"results"`
	Limit   int              `json:"limit"`
	Offset  int              `json:"offset"`
}

// parseFilter reads the listing query string. Every malformed parameter is
// reported, not just the first one.
func parseFilter(q url.Values) (search.Filter, error) {
	f := search.Filter{
		Search:  q.Get("search"),
		Company: q.Get("company"),
		Skills:  q["skills"],
	}
	fields := map[string]string{}

	intParam := func(name string) *int {
		raw := q.Get(name)
		if raw == "" {
			return nil
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			fields[name] = "must be an integer"
			return nil
		}
		return &n
	}
	timeParam := func(name string) *time.Time {
		raw := q.Get(name)
		if raw == "" {
			return nil
		}
		if t, err := time.Parse(dateLayout, raw); err == nil {
			return &t
		}
		t, err := time.Parse(timeLayout, raw)
		if err != nil {
			fields[name] = "must be a date (YYYY-MM-DD) or RFC 3339 timestamp"
			return nil
		}
		return &t
	}

	f.MinSalary = intParam("min_salary")
	f.MaxSalary = intParam("max_salary")
	if n := intParam("limit"); n != nil {
		f.Limit = *n
	}
	if n := intParam("offset"); n != nil {
		f.Offset = *n
	}
	f.PublishedAfter = timeParam("published_after")
	f.PublishedBefore = timeParam("published_before")

	if raw := q.Get("resume_based"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			fields["resume_based"] = "must be a boolean"
		}
		f.ResumeBased = b
	}

	if len(fields) > 0 {
		return f, &search.ValidationError{Fields: fields}
	}
	return f, nil
}

// ListVacancies godoc
// @Summary List vacancies
// @Description Hybrid search over published vacancies. With resume_based the caller's matches are returned in match order.
// @Tags vacancies
// @Produce json
// @Param X-User-Id header string false "caller id (uuid)"
// @Param search query string false "free text"
// @Param min_salary query int false "minimum salary is at least"
// @Param max_salary query int false "maximum salary is at most"
// @Param company query string false "company name contains"
// @Param published_after query string false "date or RFC 3339"
// @Param published_before query string false "date or RFC 3339"
// @Param skills query []string false "required skills" collectionFormat(multi)
// @Param resume_based query bool false "rank by the caller's primary resume"
// @Param limit query int false "page size (default 100, max 1000)"
// @Param offset query int false "page offset"
// @Success 200 {object} listResp
// @Failure 400 {object} apiError
// @Router /vacancies [get]
func (h *Handler) ListVacancies(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r.URL.Query())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	items, err := h.vacancies.List(r.Context(), viewerFrom(r.Context()), f)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if items == nil {
		items = []entity.Vacancy{}
	}

	limit := f.Limit
	if limit == 0 {
		limit = search.DefaultLimit
	}
	writeJSON(w, http.StatusOK, listResp{Results: items, Limit: limit, Offset: f.Offset})
}

// GetVacancy godoc
// @Summary Get vacancy by slug
// @Tags vacancies
// @Produce json
// @Param X-User-Id header string false "caller id (uuid)"
// @Param slug path string true "vacancy slug"
// @Success 200 {object} entity.Vacancy
// @Failure 404 {object} apiError
// @Router /vacancies/{slug} [get]
func (h *Handler) GetVacancy(w http.ResponseWriter, r *http.Request) {
	v, err := h.vacancies.GetBySlug(r.Context(), chi.URLParam(r, "slug"), viewerFrom(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

type rateReq struct {
	Rating *int `json:"rating"`
}

// RateVacancy godoc
// @Summary Rate a vacancy
// @Description Stores -1 (dislike), 0 (neutral) or 1 (like), replacing an earlier rating.
// @Tags vacancies
// @Accept json
// @Produce json
// @Param X-User-Id header string true "caller id (uuid)"
// @Param id path string true "vacancy id (uuid)"
// @Param request body rateReq true "rating"
// @Success 200 {object} entity.VacancyRating
// @Failure 400 {object} apiError
// @Failure 401 {object} apiError
// @Failure 404 {object} apiError
// @Router /vacancies/{id}/rating [post]
func (h *Handler) RateVacancy(w http.ResponseWriter, r *http.Request) {
	viewer := viewerFrom(r.Context())
	if viewer == uuid.Nil {
		writeErr(w, http.StatusUnauthorized, "missing "+headerUserID)
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		writeErr(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req rateReq
	if err := decodeBody(r, &req, false); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Rating == nil {
		writeFieldErr(w, "rating", "is required")
		return
	}

	out, err := h.vacancies.Rate(r.Context(), viewer, id, *req.Rating)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type approveReq struct {
	Approved *bool `json:"approved"`
}

// ApproveVacancy godoc
// @Summary Approve a vacancy
// @Description Approved vacancies are used as training examples. An empty body approves.
// @Tags admin
// @Accept json
// @Security AdminKey
// @Param id path string true "vacancy id (uuid)"
// @Param request body approveReq false "approval flag"
// @Success 204
// @Failure 404 {object} apiError
// @Router /admin/vacancies/{id}/approve [post]
func (h *Handler) ApproveVacancy(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeErr(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req approveReq
	if err := decodeBody(r, &req, true); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	approved := req.Approved == nil || *req.Approved

	if err := h.vacancies.Approve(r.Context(), id, approved); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type resumeReq struct {
	Title     string   `json:"title"`
	Skills    []string `json:"skills"`
	MinSalary *int     `json:"min_salary,omitempty"`
}

// PutResume godoc
// @Summary Replace the caller's primary resume
// @Description The primary resume drives resume_based listings.
// @Tags vacancies
// @Accept json
// @Param X-User-Id header string true "caller id (uuid)"
// @Param request body resumeReq true "resume"
// @Success 204
// @Failure 400 {object} apiError
// @Failure 401 {object} apiError
// @Router /me/resume [put]
func (h *Handler) PutResume(w http.ResponseWriter, r *http.Request) {
	viewer := viewerFrom(r.Context())
	if viewer == uuid.Nil {
		writeErr(w, http.StatusUnauthorized, "missing "+headerUserID)
		return
	}
	var req resumeReq
	if err := decodeBody(r, &req, false); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}

	err := h.vacancies.SaveProfile(r.Context(), entity.CandidateProfile{
		UserID:    viewer,
		Title:     req.Title,
		Skills:    req.Skills,
		MinSalary: req.MinSalary,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
