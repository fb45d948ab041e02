package service

import "fmt"

const (
	CodeNotFound     = "NOT_FOUND"
	CodeStoreCorrupt = "STORE_CORRUPT"
)

type BusinessError struct {
	Code    string
	Message string
	Details map[string]any
	Err     error
}

type Detail struct {
	Key     string
	Payload any
}

func (b *BusinessError) Error() string {
	if b.Err != nil {
		return fmt.Sprintf("[%s] %s: %s", b.Code, b.Message, b.Err.Error())
	}
	return fmt.Sprintf("[%s] %s", b.Code, b.Message)
}

func (b *BusinessError) Unwrap() error {
	return b.Err
}

func ToDetail(key string, payload any) Detail {
	return Detail{
		Key:     key,
		Payload: payload,
	}
}

func NewBusinessError(code string, message string, details ...Detail) *BusinessError {
	busErr := &BusinessError{
		Code:    code,
		Message: message,
		Details: make(map[string]any),
	}

	for _, detail := range details {
		busErr.Details[detail.Key] = detail.Payload
	}

	return busErr
}

func NewNotFound(id int) *BusinessError {
	return &BusinessError{
		Code:    CodeNotFound,
		Message: "To-Do item not found",
		Details: map[string]any{
			"resource": "todo",
			"id":       id,
		},
	}
}

func NewStoreCorrupt(err error) *BusinessError {
	return &BusinessError{
		Code:    CodeStoreCorrupt,
		Message: "todo store cannot be read",
		Details: map[string]any{},
		Err:     err,
	}
}
