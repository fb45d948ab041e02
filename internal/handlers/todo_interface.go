package handlers

import (
	"context"
	"todoapi/internal/models/todo"
)

type Service interface {
	HealthCheck(context.Context) error
	ListTodos(context.Context) ([]todo.Item, error)
	GetTodo(context.Context, int) (*todo.Item, error)
	CreateTodo(context.Context, todo.Item) (*todo.Item, error)
	ReplaceTodo(context.Context, int, todo.Item) (*todo.Item, error)
	DeleteTodo(context.Context, int) error
}
