package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(app *App) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/ping", PingHandler)

	r.Route("/api", func(r chi.Router) {
		r.Post("/videos/upload-url", app.UploadURLHandler)
		r.Put("/uploads/{name}", app.DirectUploadHandler)
		r.Get("/uploads/{name}", app.ServeUploadHandler)

		r.Post("/videos", app.CreateVideoHandler)
		r.Get("/videos", app.ListVideosHandler)
		r.Get("/videos/{id}", app.GetVideoHandler)
		r.Post("/videos/{id}/question", app.AskQuestionHandler)
		r.Get("/videos/{id}/questions", app.ListQuestionsHandler)
	})

	return r
}
