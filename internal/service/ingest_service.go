package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"vacancy-pipeline/internal/entity"
	"vacancy-pipeline/internal/search"
)

const maxExistsURLs = 1000

type RawRecordStore interface {
	Create(ctx context.Context, url, html string) (*entity.RawRecord, error)
	ExistsURLs(ctx context.Context, urls []string) ([]bool, error)
	Stats(ctx context.Context) (entity.StatusCounts, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

type VacancyCounter interface {
	Count(ctx context.Context) (int, error)
}

// Stats is the admin overview of the pipeline.
type Stats struct {
	RawRecords entity.StatusCounts
	Vacancies  int
}

// IngestService accepts scraped postings. URLs are compared byte for byte;
// no normalisation happens before the uniqueness check.
type IngestService struct {
	records   RawRecordStore
	vacancies VacancyCounter
}

func NewIngestService(records RawRecordStore, vacancies VacancyCounter) *IngestService {
	return &IngestService{records: records, vacancies: vacancies}
}

// CreateRecord stores a new PENDING record. A known URL fails with the
// store's duplicate error.
func (s *IngestService) CreateRecord(ctx context.Context, rawURL, html string) (*entity.RawRecord, error) {
	if err := validateURL(rawURL); err != nil {
		return nil, err
	}
	if strings.TrimSpace(html) == "" {
		return nil, search.FieldError("html", "must not be empty")
	}
	return s.records.Create(ctx, rawURL, html)
}

func validateURL(raw string) error {
	if raw == "" {
		return search.FieldError("url", "must not be empty")
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return search.FieldError("url", "must be an absolute http(s) URL")
	}
	return nil
}

// ExistsURLs answers, for each url, whether it was already ingested.
func (s *IngestService) ExistsURLs(ctx context.Context, urls []string) ([]bool, error) {
	if len(urls) > maxExistsURLs {
		return nil, search.FieldError("urls", fmt.Sprintf("at most %d urls per request", maxExistsURLs))
	}
	return s.records.ExistsURLs(ctx, urls)
}

func (s *IngestService) Stats(ctx context.Context) (*Stats, error) {
	counts, err := s.records.Stats(ctx)
	if err != nil {
		return nil, err
	}
	n, err := s.vacancies.Count(ctx)
	if err != nil {
		return nil, err
	}
	return &Stats{RawRecords: counts, Vacancies: n}, nil
}

func (s *IngestService) DeleteRecord(ctx context.Context, id uuid.UUID) error {
	return s.records.SoftDelete(ctx, id)
}
