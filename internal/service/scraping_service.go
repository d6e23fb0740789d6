package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"vacancy-pipeline/internal/entity"
	"vacancy-pipeline/internal/search"
)

const defaultPendingTasks = 50

type ScrapingTaskStore interface {
	Create(ctx context.Context, query string) (*entity.ScrapingTask, error)
	ListPending(ctx context.Context, limit int) ([]entity.ScrapingTask, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status entity.Status) (*entity.ScrapingTask, error)
}

// ScrapingTaskService hands search queries to external scrapers.
type ScrapingTaskService struct {
	store ScrapingTaskStore
}

func NewScrapingTaskService(store ScrapingTaskStore) *ScrapingTaskService {
	return &ScrapingTaskService{store: store}
}

func (s *ScrapingTaskService) Create(ctx context.Context, query string) (*entity.ScrapingTask, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, search.FieldError("query", "must not be empty")
	}
	return s.store.Create(ctx, query)
}

func (s *ScrapingTaskService) ListPending(ctx context.Context, limit int) ([]entity.ScrapingTask, error) {
	if limit <= 0 || limit > search.MaxLimit {
		limit = defaultPendingTasks
	}
	return s.store.ListPending(ctx, limit)
}

func (s *ScrapingTaskService) UpdateStatus(ctx context.Context, id uuid.UUID, raw string) (*entity.ScrapingTask, error) {
	status, err := entity.ParseStatus(raw)
	if err != nil {
		return nil, search.FieldError("status", err.Error())
	}
	return s.store.UpdateStatus(ctx, id, status)
}
