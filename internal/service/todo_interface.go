package service

import (
	"context"
	"todoapi/internal/models/todo"
)

type TodoRepository interface {
	Load(context.Context) ([]todo.Item, error)
	Save(context.Context, []todo.Item) error
	HealthCheck(context.Context) error
}
