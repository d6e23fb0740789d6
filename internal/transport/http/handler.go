package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"vacancy-pipeline/internal/entity"
	"vacancy-pipeline/internal/search"
	"vacancy-pipeline/internal/service"
)

type JobService interface {
	EnqueueProcessing(ctx context.Context, in entity.ProcessInput) (uuid.UUID, error)
	EnqueueTraining(ctx context.Context) (uuid.UUID, error)
	GetJob(ctx context.Context, id uuid.UUID) (*entity.Job, error)
}

type IngestService interface {
	CreateRecord(ctx context.Context, url, html string) (*entity.RawRecord, error)
	ExistsURLs(ctx context.Context, urls []string) ([]bool, error)
	Stats(ctx context.Context) (*service.Stats, error)
	DeleteRecord(ctx context.Context, id uuid.UUID) error
}

type ScrapingTaskService interface {
	Create(ctx context.Context, query string) (*entity.ScrapingTask, error)
	ListPending(ctx context.Context, limit int) ([]entity.ScrapingTask, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*entity.ScrapingTask, error)
}

type VacancyService interface {
	List(ctx context.Context, viewer uuid.UUID, f search.Filter) ([]entity.Vacancy, error)
	GetBySlug(ctx context.Context, slug string, viewer uuid.UUID) (*entity.Vacancy, error)
	Rate(ctx context.Context, userID, vacancyID uuid.UUID, rating int) (*entity.VacancyRating, error)
	Approve(ctx context.Context, id uuid.UUID, approved bool) error
	SaveProfile(ctx context.Context, p entity.CandidateProfile) error
}

type Handler struct {
	jobs      JobService
	ingest    IngestService
	tasks     ScrapingTaskService
	vacancies VacancyService
	logger    *zap.Logger
}

func NewHandler(jobs JobService, ingest IngestService, tasks ScrapingTaskService, vacancies VacancyService, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		jobs:      jobs,
		ingest:    ingest,
		tasks:     tasks,
		vacancies: vacancies,
		logger:    logger,
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	writeServiceError(w, r, h.logger, err)
}

func pathID(r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	return id, err == nil
}

// decodeBody decodes a JSON body into v. An empty body leaves v untouched
// when optional is set.
func decodeBody(r *http.Request, v any, optional bool) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if optional && errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

type jobHandleResp struct {
	JobID string `json:"job_id"`
}

// GetJob godoc
// @Summary Get pipeline job
// @Description Reports status, input and output of a processing or training job.
// @Tags jobs
// @Produce json
// @Security AdminKey
// @Param id path string true "job id (uuid)"
// @Success 200 {object} entity.Job
// @Failure 400 {object} apiError
// @Failure 404 {object} apiError
// @Router /jobs/{id} [get]
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeErr(w, http.StatusBadRequest, "invalid id")
		return
	}

	j, err := h.jobs.GetJob(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, j)
}

type processReq struct {
	IDs         []string `json:"ids,omitempty"`
	BatchSize   int      `json:"batch_size,omitempty"`
	Concurrency int      `json:"concurrency,omitempty"`
}

// ProcessVacancies godoc
// @Summary Launch vacancy processing
// @Description Queues a batch run over all pending scraped vacancies, or over the given ids in any status.
// @Tags admin
// @Accept json
// @Produce json
// @Security AdminKey
// @Param request body processReq false "optional selection and tuning"
// @Success 202 {object} jobHandleResp
// @Failure 400 {object} apiError
// @Router /admin/vacancies/process [post]
func (h *Handler) ProcessVacancies(w http.ResponseWriter, r *http.Request) {
	var req processReq
	if err := decodeBody(r, &req, true); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}

	in := entity.ProcessInput{BatchSize: req.BatchSize, Concurrency: req.Concurrency}
	for _, raw := range req.IDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeFieldErr(w, "ids", "invalid uuid "+raw)
			return
		}
		in.IDs = append(in.IDs, id)
	}

	jobID, err := h.jobs.EnqueueProcessing(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, jobHandleResp{JobID: jobID.String()})
}

// TrainModel godoc
// @Summary Launch model training
// @Description Queues a training run over the approved vacancies.
// @Tags admin
// @Produce json
// @Security AdminKey
// @Success 202 {object} jobHandleResp
// @Router /admin/model/train [post]
func (h *Handler) TrainModel(w http.ResponseWriter, r *http.Request) {
	jobID, err := h.jobs.EnqueueTraining(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, jobHandleResp{JobID: jobID.String()})
}
