package httptransport

import (
	"net/http"
	"strconv"

	"vacancy-pipeline/internal/entity"
)

type createRecordReq struct {
	URL  string `json:"url"`
	HTML string `json:"html"`
}

type recordResp struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

// CreateScrapedVacancy godoc
// @Summary Submit a scraped vacancy
// @Tags ingestion
// @Accept json
// @Produce json
// @Security ApiKey
// @Param request body createRecordReq true "scraped page"
// @Success 201 {object} recordResp
// @Failure 400 {object} apiError
// @Router /scraped-vacancies [post]
func (h *Handler) CreateScrapedVacancy(w http.ResponseWriter, r *http.Request) {
	var req createRecordReq
	if err := decodeBody(r, &req, false); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}

	rec, err := h.ingest.CreateRecord(r.Context(), req.URL, req.HTML)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, recordResp{
		ID:        rec.ID.String(),
		URL:       rec.URL,
		Status:    string(rec.Status),
		CreatedAt: rec.CreatedAt.Format(timeLayout),
	})
}

type existsReq struct {
	URLs []string `json:"urls"`
}

type existsResp struct {
	Result []bool `json:"result"`
}

// ScrapedVacanciesExist godoc
// @Summary Check which URLs were already ingested
// @Tags ingestion
// @Accept json
// @Produce json
// @Security ApiKey
// @Param request body existsReq true "urls"
// @Success 200 {object} existsResp
// @Failure 400 {object} apiError
// @Router /scraped-vacancies/exists [post]
func (h *Handler) ScrapedVacanciesExist(w http.ResponseWriter, r *http.Request) {
	var req existsReq
	if err := decodeBody(r, &req, false); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}

	result, err := h.ingest.ExistsURLs(r.Context(), req.URLs)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if result == nil {
		result = []bool{}
	}
	writeJSON(w, http.StatusOK, existsResp{Result: result})
}

// DeleteScrapedVacancy godoc
// @Summary Soft-delete a scraped vacancy
// @Tags admin
// @Security AdminKey
// @Param id path string true "scraped vacancy id (uuid)"
// @Success 204
// @Failure 404 {object} apiError
// @Router /admin/scraped-vacancies/{id} [delete]
func (h *Handler) DeleteScrapedVacancy(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeErr(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.ingest.DeleteRecord(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type statsResp struct {
	ScrapedVacancies map[string]int `json:"scraped_vacancies"`
	Vacancies        int            `json:"vacancies"`
}

// VacancyStats godoc
// @Summary Pipeline counters
// @Tags admin
// @Produce json
// @Security AdminKey
// @Success 200 {object} statsResp
// @Router /admin/vacancies/stats [get]
func (h *Handler) VacancyStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.ingest.Stats(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	raw := make(map[string]int, len(entity.AllStatuses)+1)
	for _, st := range entity.AllStatuses {
		raw[string(st)] = stats.RawRecords[st]
	}
	raw["total"] = stats.RawRecords.Total()
	writeJSON(w, http.StatusOK, statsResp{ScrapedVacancies: raw, Vacancies: stats.Vacancies})
}

type createTaskReq struct {
	Query string `json:"query"`
}

type taskStatusReq struct {
	Status string `json:"status"`
}

// PendingScrapingTasks godoc
// @Summary List pending scraping tasks
// @Tags scraping
// @Produce json
// @Security ApiKey
// @Param limit query int false "max tasks (default 50)"
// @Success 200 {array} entity.ScrapingTask
// @Router /scraping-tasks/pending [get]
func (h *Handler) PendingScrapingTasks(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeFieldErr(w, "limit", "must be an integer")
			return
		}
		limit = n
	}

	tasks, err := h.tasks.ListPending(r.Context(), limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if tasks == nil {
		tasks = []entity.ScrapingTask{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

// CreateScrapingTask godoc
// @Summary Create a scraping task
// @Tags scraping
// @Accept json
// @Produce json
// @Security ApiKey
// @Param request body createTaskReq true "search query"
// @Success 201 {object} entity.ScrapingTask
// @Failure 400 {object} apiError
// @Router /scraping-tasks [post]
func (h *Handler) CreateScrapingTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskReq
	if err := decodeBody(r, &req, false); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	task, err := h.tasks.Create(r.Context(), req.Query)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

// UpdateScrapingTaskStatus godoc
// @Summary Report scraping task progress
// @Tags scraping
// @Accept json
// @Produce json
// @Security ApiKey
// @Param id path string true "task id (uuid)"
// @Param request body taskStatusReq true "new status"
// @Success 200 {object} entity.ScrapingTask
// @Failure 400 {object} apiError
// @Failure 404 {object} apiError
// @Router /scraping-tasks/{id}/status [post]
func (h *Handler) UpdateScrapingTaskStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeErr(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req taskStatusReq
	if err := decodeBody(r, &req, false); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	task, err := h.tasks.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}
