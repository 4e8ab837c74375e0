package httpapi

import (
	stdhttp "net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"scribe/internal/http/handlers"
	"scribe/internal/middleware"
)

// NewRouter builds the service's HTTP routing tree.
func NewRouter(app *handlers.App) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID, chimw.RealIP, chimw.Recoverer)
	r.Use(middleware.Logger(app.Logger))
	if len(app.Config.CORSOrigins) > 0 {
		r.Use(middleware.CORS(app.Config.CORSOrigins))
	}

	r.Get("/v1/healthz", app.Health)

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthJWT(app.Config.JWTSecret))

		r.Post("/v1/transcriptions", app.TranscriptionsCreate)

		r.Route("/v1/transcripts", func(r chi.Router) {
			r.Get("/", app.TranscriptsList)
			r.Get("/export", app.TranscriptsExport)
			r.Get("/{id}", app.TranscriptsGet)
		})

		r.Route("/v1/subscriptions", func(r chi.Router) {
			r.Get("/me", app.SubscriptionMe)
			r.Post("/credits", app.SubscriptionCredits)
			r.Post("/upgrade", app.SubscriptionUpgrade)
			r.Post("/downgrade", app.SubscriptionDowngrade)
			r.Post("/replenish", app.SubscriptionReplenish)
		})

		r.Route("/v1/prompts", func(r chi.Router) {
			r.Get("/", app.PromptsList)
			r.Post("/", app.PromptsCreate)
		})
	})

	return r
}
