package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mbolis/survey-intake/app"
	"github.com/mbolis/survey-intake/routes/middlewares"
)

func Wire(app app.App) http.Handler {
	root := chi.NewRouter()
	root.Use(middleware.RequestID, middlewares.RequestLogger, middleware.Recoverer)

	root.Get("/ping", Ping(app))

	root.Route("/v1", func(r chi.Router) {
		r.Use(middlewares.CORS(app.CORSOrigins))

		r.Post("/survey", SubmitSurvey(app))
	})

	return root
}
