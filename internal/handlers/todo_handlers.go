package handlers

import (
	"net/http"
	"time"
	"todoapi/internal/logger"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	serviceName    = "todo-api"
	deletedMessage = "To-Do item deleted"
)

type TodoHandler struct {
	TodoService Service
}

func NewTodoHandler(todoService Service) *TodoHandler {
	return &TodoHandler{
		TodoService: todoService,
	}
}

func (h *TodoHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP: Health check")

	if err := h.TodoService.HealthCheck(r.Context()); err != nil {
		logger.Error("HTTP: Health check failed", err)
		responseWithJSON(w, http.StatusServiceUnavailable,
			toPayload("status", "unavailable"),
			toPayload("service", serviceName),
			toPayload("detail", err.Error()),
		)
		return
	}

	responseWithJSON(w, http.StatusOK,
		toPayload("status", "ok"),
		toPayload("service", serviceName),
	)
}

// ListTodos handles GET /todos.
func (h *TodoHandler) ListTodos(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	items, err := h.TodoService.ListTodos(r.Context())
	if err != nil {
		handleServiceError(w, r, err, "list_todos")
		return
	}

	logger.Info("HTTP_OUT: Todos listed",
		zap.Int("count", len(items)),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	writeJSON(w, http.StatusOK, items)
}

// GetTodo handles GET /todos/{id}.
func (h *TodoHandler) GetTodo(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := h.todoID(w, r)
	if !ok {
		return
	}

	item, err := h.TodoService.GetTodo(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err, "get_todo")
		return
	}

	logger.Info("HTTP_OUT: Todo fetched",
		zap.Int("todo_id", id),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	writeJSON(w, http.StatusOK, item)
}

// CreateTodo handles POST /todos.
func (h *TodoHandler) CreateTodo(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	item, fieldErrs := decodeTodoItem(w, r)
	if len(fieldErrs) > 0 {
		validationFailed(w, r, fieldErrs)
		return
	}

	created, err := h.TodoService.CreateTodo(r.Context(), item)
	if err != nil {
		handleServiceError(w, r, err, "create_todo")
		return
	}

	logger.Info("HTTP_OUT: Todo created",
		zap.Int("todo_id", created.ID),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	writeJSON(w, http.StatusOK, created)
}

// ReplaceTodo handles PUT /todos/{id}. The body replaces the stored record as a whole.
func (h *TodoHandler) ReplaceTodo(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := h.todoID(w, r)
	if !ok {
		return
	}

	item, fieldErrs := decodeTodoItem(w, r)
	if len(fieldErrs) > 0 {
		validationFailed(w, r, fieldErrs)
		return
	}

	replaced, err := h.TodoService.ReplaceTodo(r.Context(), id, item)
	if err != nil {
		handleServiceError(w, r, err, "replace_todo")
		return
	}

	logger.Info("HTTP_OUT: Todo replaced",
		zap.Int("todo_id", id),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	writeJSON(w, http.StatusOK, replaced)
}

// DeleteTodo handles DELETE /todos/{id}. The confirmation is the same whether
// or not anything was removed.
func (h *TodoHandler) DeleteTodo(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := h.todoID(w, r)
	if !ok {
		return
	}

	if err := h.TodoService.DeleteTodo(r.Context(), id); err != nil {
		handleServiceError(w, r, err, "delete_todo")
		return
	}

	logger.Info("HTTP_OUT: Todo deleted",
		zap.Int("todo_id", id),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, toPayload("message", deletedMessage))
}

func (h *TodoHandler) todoID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, fieldErrs := parseTodoID(chi.URLParam(r, "id"))
	if len(fieldErrs) > 0 {
		validationFailed(w, r, fieldErrs)
		return 0, false
	}
	return id, true
}

func validationFailed(w http.ResponseWriter, r *http.Request, fieldErrs []FieldError) {
	logger.Warn("HTTP: Validation failed",
		zap.Any("detail", fieldErrs),
		zap.String("client_ip", r.RemoteAddr))

	responseWithJSON(w, http.StatusUnprocessableEntity, toPayload("detail", fieldErrs))
}
