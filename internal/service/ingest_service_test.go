package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"vacancy-pipeline/internal/entity"
	"vacancy-pipeline/internal/repository/postgresql"
	"vacancy-pipeline/internal/search"
	"vacancy-pipeline/internal/service"
)

type fakeRawRecords struct {
	urls    map[string]bool
	deleted []uuid.UUID
}

func (r *fakeRawRecords) Create(_ context.Context, url, html string) (*entity.RawRecord, error) {
	if r.urls[url] {
		return nil, postgresql.ErrDuplicateRecord
	}
	r.urls[url] = true
	return &entity.RawRecord{ID: uuid.New(), URL: url, HTML: html, Status: entity.StatusPending}, nil
}

func (r *fakeRawRecords) ExistsURLs(_ context.Context, urls []string) ([]bool, error) {
	out := make([]bool, len(urls))
	for i, u := range urls {
		out[i] = r.urls[u]
	}
	return out, nil
}

func (r *fakeRawRecords) Stats(context.Context) (entity.StatusCounts, error) {
	return entity.StatusCounts{entity.StatusPending: 2, entity.StatusDone: 3}, nil
}

func (r *fakeRawRecords) SoftDelete(_ context.Context, id uuid.UUID) error {
	r.deleted = append(r.deleted, id)
	return nil
}

type fakeCounter int

func (c fakeCounter) Count(context.Context) (int, error) { return int(c), nil }

func TestIngestService_CreateRecord(t *testing.T) {
	records := &fakeRawRecords{urls: map[string]bool{}}
	svc := service.NewIngestService(records, fakeCounter(0))
	ctx := context.Background()

	rec, err := svc.CreateRecord(ctx, "https://jobs.example/1", "<html>x</html>")
	if err != nil {
		t.Fatalf("CreateRecord returned error: %v", err)
	}
	if rec.Status != entity.StatusPending {
		t.Errorf("expected pending record, got %s", rec.Status)
	}

	if _, err := svc.CreateRecord(ctx, "https://jobs.example/1", "<html>y</html>"); !errors.Is(err, postgresql.ErrDuplicateRecord) {
		t.Errorf("expected ErrDuplicateRecord, got %v", err)
	}
	// URLs are compared byte for byte.
	if _, err := svc.CreateRecord(ctx, "https://jobs.example/1/", "<html>y</html>"); err != nil {
		t.Errorf("expected a differing URL to be accepted, got %v", err)
	}
}

func TestIngestService_CreateRecord_Validation(t *testing.T) {
	svc := service.NewIngestService(&fakeRawRecords{urls: map[string]bool{}}, fakeCounter(0))

	cases := []struct {
		url, html, field string
	}{
		{"", "<p>x</p>", "url"},
		{"ftp://example.com/a", "<p>x</p>", "url"},
		{"/relative", "<p>x</p>", "url"},
		{"https://example.com/a", "  ", "html"},
	}
	for _, tc := range cases {
		_, err := svc.CreateRecord(context.Background(), tc.url, tc.html)
		var ve *search.ValidationError
		if !errors.As(err, &ve) || ve.Fields[tc.field] == "" {
			t.Errorf("CreateRecord(%q, %q): expected field error on %s, got %v", tc.url, tc.html, tc.field, err)
		}
	}
}

func TestIngestService_ExistsAndStats(t *testing.T) {
	records := &fakeRawRecords{urls: map[string]bool{"https://a": true}}
	svc := service.NewIngestService(records, fakeCounter(7))
	ctx := context.Background()

	got, err := svc.ExistsURLs(ctx, []string{"https://a", "https://b"})
	if err != nil {
		t.Fatalf("ExistsURLs returned error: %v", err)
	}
	if len(got) != 2 || !got[0] || got[1] {
		t.Errorf("unexpected exists result %v", got)
	}

	stats, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats returned error: %v", err)
	}
	if stats.RawRecords.Total() != 5 || stats.Vacancies != 7 {
		t.Errorf("unexpected stats %+v", stats)
	}
}
