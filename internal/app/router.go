package app

import (
	"net/http"
	"todoapi/internal/config"
	"todoapi/internal/handlers"
	"todoapi/internal/middleware"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func NewRouter(h *handlers.TodoHandler, cfg config.HTTPConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	r.Use(middleware.RateLimit(cfg.RateLimitRPM))

	r.Route("/todos", func(r chi.Router) {
		r.Get("/", h.ListTodos)   // GET /todos
		r.Post("/", h.CreateTodo) // POST /todos

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetTodo)       // GET /todos/{id}
			r.Put("/", h.ReplaceTodo)   // PUT /todos/{id}
			r.Delete("/", h.DeleteTodo) // DELETE /todos/{id}
		})
	})

	r.Get("/health", h.HealthCheck)

	return otelhttp.NewHandler(r, "todo-api",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}
