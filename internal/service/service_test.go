package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"todoapi/internal/models/todo"
	"todoapi/internal/repository"
	"todoapi/internal/repository/todo/file"
	"todoapi/internal/service"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockTodoRepository is a testify mock of the store.
type MockTodoRepository struct {
	mock.Mock
}

func (m *MockTodoRepository) Load(ctx context.Context) ([]todo.Item, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]todo.Item), args.Error(1)
}

func (m *MockTodoRepository) Save(ctx context.Context, items []todo.Item) error {
	args := m.Called(ctx, items)
	return args.Error(0)
}

func (m *MockTodoRepository) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

var _ service.TodoRepository = (*MockTodoRepository)(nil)

func makeTodo(id int, title string) todo.Item {
	return todo.Item{
		ID:          id,
		Title:       title,
		Description: title + " description",
		Status:      "아직",
		Completed:   false,
		CreatedAt:   "2024-05-01T10:00:00",
		UpdatedAt:   "2024-05-01T10:00:00",
	}
}

func TestTodoService_HealthCheck(t *testing.T) {
	tests := []struct {
		name        string
		setupMock   func(*MockTodoRepository)
		expectError bool
	}{
		{
			name: "success - store readable",
			setupMock: func(m *MockTodoRepository) {
				m.On("HealthCheck", mock.Anything).Return(nil)
			},
		},
		{
			name: "error - store corrupt",
			setupMock: func(m *MockTodoRepository) {
				m.On("HealthCheck", mock.Anything).Return(repository.ErrParse)
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockTodoRepository)
			tt.setupMock(mockRepo)

			svc := service.NewTodoService(mockRepo)
			err := svc.HealthCheck(context.Background())

			if tt.expectError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), "service health check")
			} else {
				assert.NoError(t, err)
			}
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestTodoService_ListTodos(t *testing.T) {
	tests := []struct {
		name         string
		setupMock    func(*MockTodoRepository)
		expectedLen  int
		expectedCode string
		expectError  bool
	}{
		{
			name: "success - empty store",
			setupMock: func(m *MockTodoRepository) {
				m.On("Load", mock.Anything).Return([]todo.Item{}, nil)
			},
			expectedLen: 0,
		},
		{
			name: "success - two items",
			setupMock: func(m *MockTodoRepository) {
				m.On("Load", mock.Anything).Return([]todo.Item{makeTodo(1, "a"), makeTodo(2, "b")}, nil)
			},
			expectedLen: 2,
		},
		{
			name: "error - corrupt store",
			setupMock: func(m *MockTodoRepository) {
				m.On("Load", mock.Anything).Return(nil, fmt.Errorf("%w: bad json", repository.ErrParse))
			},
			expectError:  true,
			expectedCode: service.CodeStoreCorrupt,
		},
		{
			name: "error - io failure",
			setupMock: func(m *MockTodoRepository) {
				m.On("Load", mock.Anything).Return(nil, errors.New("permission denied"))
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockTodoRepository)
			tt.setupMock(mockRepo)

			svc := service.NewTodoService(mockRepo)
			items, err := svc.ListTodos(context.Background())

			if tt.expectError {
				require.Error(t, err)
				var busErr *service.BusinessError
				if tt.expectedCode != "" {
					require.ErrorAs(t, err, &busErr)
					assert.Equal(t, tt.expectedCode, busErr.Code)
				} else {
					assert.False(t, errors.As(err, &busErr))
				}
			} else {
				require.NoError(t, err)
				assert.Len(t, items, tt.expectedLen)
			}
			mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestTodoService_GetTodo(t *testing.T) {
	mockRepo := new(MockTodoRepository)
	mockRepo.On("Load", mock.Anything).Return([]todo.Item{makeTodo(1, "a"), makeTodo(2, "b")}, nil)

	svc := service.NewTodoService(mockRepo)

	got, err := svc.GetTodo(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "b", got.Title)

	_, err = svc.GetTodo(context.Background(), 3)
	var busErr *service.BusinessError
	require.ErrorAs(t, err, &busErr)
	assert.Equal(t, service.CodeNotFound, busErr.Code)
	assert.Equal(t, 3, busErr.Details["id"])
}

func TestTodoService_CreateTodo(t *testing.T) {
	existing := makeTodo(1, "first")
	newItem := makeTodo(2, "second")

	tests := []struct {
		name        string
		setupMock   func(*MockTodoRepository)
		item        todo.Item
		expectError bool
	}{
		{
			name: "success - appended to the end",
			setupMock: func(m *MockTodoRepository) {
				m.On("Load", mock.Anything).Return([]todo.Item{existing}, nil)
				m.On("Save", mock.Anything, []todo.Item{existing, newItem}).Return(nil)
			},
			item: newItem,
		},
		{
			name: "success - duplicate id accepted",
			setupMock: func(m *MockTodoRepository) {
				m.On("Load", mock.Anything).Return([]todo.Item{existing}, nil)
				m.On("Save", mock.Anything, []todo.Item{existing, existing}).Return(nil)
			},
			item: existing,
		},
		{
			name: "error - save fails",
			setupMock: func(m *MockTodoRepository) {
				m.On("Load", mock.Anything).Return([]todo.Item{}, nil)
				m.On("Save", mock.Anything, mock.Anything).Return(errors.New("disk full"))
			},
			item:        newItem,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockTodoRepository)
			tt.setupMock(mockRepo)

			svc := service.NewTodoService(mockRepo)
			created, err := svc.CreateTodo(context.Background(), tt.item)

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, created)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.item, *created)
			}
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestTodoService_ReplaceTodo(t *testing.T) {
	original := makeTodo(1, "Test")
	other := makeTodo(2, "Other")
	updated := todo.Item{
		ID:          1,
		Title:       "Updated",
		Description: "Updated description",
		Status:      "진행중",
		Completed:   true,
		CreatedAt:   original.CreatedAt,
		UpdatedAt:   "2024-05-02T10:00:00",
	}

	tests := []struct {
		name         string
		id           int
		setupMock    func(*MockTodoRepository)
		expectedCode string
		expectError  bool
	}{
		{
			name: "success - replaced in place",
			id:   1,
			setupMock: func(m *MockTodoRepository) {
				m.On("Load", mock.Anything).Return([]todo.Item{original, other}, nil)
				m.On("Save", mock.Anything, []todo.Item{updated, other}).Return(nil)
			},
		},
		{
			name: "success - only first duplicate replaced",
			id:   1,
			setupMock: func(m *MockTodoRepository) {
				m.On("Load", mock.Anything).Return([]todo.Item{original, original}, nil)
				m.On("Save", mock.Anything, []todo.Item{updated, original}).Return(nil)
			},
		},
		{
			name: "error - not found, nothing saved",
			id:   42,
			setupMock: func(m *MockTodoRepository) {
				m.On("Load", mock.Anything).Return([]todo.Item{original}, nil)
			},
			expectError:  true,
			expectedCode: service.CodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockTodoRepository)
			tt.setupMock(mockRepo)

			svc := service.NewTodoService(mockRepo)
			result, err := svc.ReplaceTodo(context.Background(), tt.id, updated)

			if tt.expectError {
				var busErr *service.BusinessError
				require.ErrorAs(t, err, &busErr)
				assert.Equal(t, tt.expectedCode, busErr.Code)
				mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
			} else {
				require.NoError(t, err)
				assert.Equal(t, updated, *result)
			}
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestTodoService_DeleteTodo(t *testing.T) {
	first := makeTodo(1, "first")
	second := makeTodo(2, "second")

	tests := []struct {
		name        string
		id          int
		setupMock   func(*MockTodoRepository)
		expectError bool
	}{
		{
			name: "success - existing removed",
			id:   1,
			setupMock: func(m *MockTodoRepository) {
				m.On("Load", mock.Anything).Return([]todo.Item{first, second}, nil)
				m.On("Save", mock.Anything, []todo.Item{second}).Return(nil)
			},
		},
		{
			name: "success - missing id still saves unchanged list",
			id:   99,
			setupMock: func(m *MockTodoRepository) {
				m.On("Load", mock.Anything).Return([]todo.Item{first, second}, nil)
				m.On("Save", mock.Anything, []todo.Item{first, second}).Return(nil)
			},
		},
		{
			name: "success - only first duplicate removed",
			id:   1,
			setupMock: func(m *MockTodoRepository) {
				m.On("Load", mock.Anything).Return([]todo.Item{first, first}, nil)
				m.On("Save", mock.Anything, []todo.Item{first}).Return(nil)
			},
		},
		{
			name: "error - save fails",
			id:   1,
			setupMock: func(m *MockTodoRepository) {
				m.On("Load", mock.Anything).Return([]todo.Item{first}, nil)
				m.On("Save", mock.Anything, mock.Anything).Return(errors.New("read-only fs"))
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockTodoRepository)
			tt.setupMock(mockRepo)

			svc := service.NewTodoService(mockRepo)
			err := svc.DeleteTodo(context.Background(), tt.id)

			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			mockRepo.AssertExpectations(t)
		})
	}
}

// Concurrent creates against a real store must not lose updates.
func TestTodoService_ConcurrentCreates(t *testing.T) {
	ctx := context.Background()
	store := file.NewWithFs(afero.NewMemMapFs(), "/todos.json")
	svc := service.NewTodoService(store)

	const workers = 20
	var wg sync.WaitGroup
	for i := 1; i <= workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			_, err := svc.CreateTodo(ctx, makeTodo(id, fmt.Sprintf("todo-%d", id)))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	items, err := svc.ListTodos(ctx)
	require.NoError(t, err)
	assert.Len(t, items, workers)
}
