package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

// Keys holds the accepted credentials per audience.
type Keys struct {
	API   []string
	Admin []string
}

func Routes(h *Handler, keys Keys, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(logger))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	// scrapers
	r.Group(func(r chi.Router) {
		r.Use(RequireKey(headerAPIKey, keys.API))
		r.Post("/scraped-vacancies", h.CreateScrapedVacancy)
		r.Post("/scraped-vacancies/exists", h.ScrapedVacanciesExist)
		r.Route("/scraping-tasks", func(r chi.Router) {
			r.Post("/", h.CreateScrapingTask)
			r.Get("/pending", h.PendingScrapingTasks)
			r.Post("/{id}/status", h.UpdateScrapingTaskStatus)
		})
	})

	// operators
	r.Group(func(r chi.Router) {
		r.Use(RequireKey(headerAdminKey, keys.Admin))
		r.Get("/jobs/{id}", h.GetJob)
		r.Route("/admin", func(r chi.Router) {
			r.Post("/vacancies/process", h.ProcessVacancies)
			r.Get("/vacancies/stats", h.VacancyStats)
			r.Post("/vacancies/{id}/approve", h.ApproveVacancy)
			r.Delete("/scraped-vacancies/{id}", h.DeleteScrapedVacancy)
			r.Post("/model/train", h.TrainModel)
		})
	})

	// end users, identified by the gateway
	r.Group(func(r chi.Router) {
		r.Use(Viewer)
		r.Get("/vacancies", h.ListVacancies)
		r.Get("/vacancies/{slug}", h.GetVacancy)
		r.Post("/vacancies/{id}/rating", h.RateVacancy)
		r.Put("/me/resume", h.PutResume)
	})

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	return r
}
