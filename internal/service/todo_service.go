package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"todoapi/internal/logger"
	"todoapi/internal/models/todo"
	rep "todoapi/internal/repository"

	"go.uber.org/zap"
)

// TodoService applies one mutation per request to the stored collection.
// Every call loads the full list and, for writes, saves it back; mu keeps
// concurrent requests in this process from losing each other's updates.
type TodoService struct {
	repo TodoRepository
	mu   sync.Mutex
}

func NewTodoService(repo TodoRepository) *TodoService {
	return &TodoService{
		repo: repo,
	}
}

func (s *TodoService) HealthCheck(ctx context.Context) error {
	if err := s.repo.HealthCheck(ctx); err != nil {
		return fmt.Errorf("service health check: %w", err)
	}
	return nil
}

func (s *TodoService) ListTodos(ctx context.Context) ([]todo.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.load(ctx)
}

func (s *TodoService) GetTodo(ctx context.Context, id int) (*todo.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	idx := todo.IndexOf(items, id)
	if idx < 0 {
		logger.Info("Service: Todo not found", zap.Int("target_id", id))
		return nil, NewNotFound(id)
	}
	item := items[idx]
	return &item, nil
}

// CreateTodo appends item as given. Duplicate ids are accepted.
func (s *TodoService) CreateTodo(ctx context.Context, item todo.Item) (*todo.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	items = append(items, item)
	if err := s.repo.Save(ctx, items); err != nil {
		return nil, fmt.Errorf("saving new todo: %w", err)
	}

	logger.Info("Service: Todo created", zap.Int("todo_id", item.ID), zap.Int("total", len(items)))
	return &item, nil
}

// ReplaceTodo overwrites the first record whose id matches with item,
// including item's own id. Nothing is written when no record matches.
func (s *TodoService) ReplaceTodo(ctx context.Context, id int, item todo.Item) (*todo.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	idx := todo.IndexOf(items, id)
	if idx < 0 {
		logger.Info("Service: Todo not found", zap.Int("target_id", id))
		return nil, NewNotFound(id)
	}

	items[idx] = item
	if err := s.repo.Save(ctx, items); err != nil {
		return nil, fmt.Errorf("saving todo %d: %w", id, err)
	}

	logger.Info("Service: Todo replaced", zap.Int("target_id", id))
	return &item, nil
}

// DeleteTodo removes the first record with the given id. A missing id is not
// an error and the collection is saved either way.
func (s *TodoService) DeleteTodo(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load(ctx)
	if err != nil {
		return err
	}

	removed := false
	if idx := todo.IndexOf(items, id); idx >= 0 {
		items = append(items[:idx], items[idx+1:]...)
		removed = true
	}

	if err := s.repo.Save(ctx, items); err != nil {
		return fmt.Errorf("saving after delete of %d: %w", id, err)
	}

	logger.Info("Service: Todo delete processed", zap.Int("target_id", id), zap.Bool("removed", removed))
	return nil
}

func (s *TodoService) load(ctx context.Context) ([]todo.Item, error) {
	items, err := s.repo.Load(ctx)
	if err != nil {
		if errors.Is(err, rep.ErrParse) {
			return nil, NewStoreCorrupt(err)
		}
		return nil, fmt.Errorf("loading todos: %w", err)
	}
	return items, nil
}
