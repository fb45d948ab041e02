package handlers

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"todoapi/internal/models/todo"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

const (
	maxBodyBytes = 1 << 20
	schemaURL    = "https://todoapi.local/schemas/todo_item.json"
)

//go:embed todo_item.schema.json
var todoItemSchemaJSON string

var (
	todoItemSchema = mustCompileSchema()
	requiredFields = mustRequiredFields()
)

// FieldError is one entry of a 422 response, shaped as {"loc", "msg", "type"}.
type FieldError struct {
	Loc  []any  `json:"loc"`
	Msg  string `json:"msg"`
	Type string `json:"type"`
}

func mustCompileSchema() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, strings.NewReader(todoItemSchemaJSON)); err != nil {
		panic(fmt.Sprintf("todo item schema: %v", err))
	}
	return compiler.MustCompile(schemaURL)
}

func mustRequiredFields() []string {
	var s struct {
		Required []string `json:"required"`
	}
	if err := json.Unmarshal([]byte(todoItemSchemaJSON), &s); err != nil {
		panic(fmt.Sprintf("todo item schema: %v", err))
	}
	return s.Required
}

func checkContentType(r *http.Request, target string) bool {
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		return false
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}

	return mediaType == target
}

// decodeTodoItem reads the request body and checks it against the TodoItem
// schema. A non-empty error list means the item must not be used.
func decodeTodoItem(w http.ResponseWriter, r *http.Request) (todo.Item, []FieldError) {
	var item todo.Item

	if r.Header.Get("Content-Type") != "" && !checkContentType(r, "application/json") {
		return item, []FieldError{{
			Loc:  []any{"body"},
			Msg:  "Content-Type must be application/json",
			Type: "value_error.content_type",
		}}
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return item, []FieldError{{Loc: []any{"body"}, Msg: err.Error(), Type: "value_error.body"}}
	}

	doc, err := decodeJSONDocument(body)
	if err != nil {
		return item, []FieldError{{Loc: []any{"body"}, Msg: err.Error(), Type: "value_error.jsondecode"}}
	}

	if err := todoItemSchema.Validate(doc); err != nil {
		return item, schemaFieldErrors(doc, err)
	}

	if err := json.Unmarshal(body, &item); err != nil {
		return item, []FieldError{{Loc: []any{"body"}, Msg: err.Error(), Type: "value_error"}}
	}
	return item, nil
}

func decodeJSONDocument(body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("request body is empty")
		}
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("invalid JSON: unexpected data after top-level value")
	}
	return doc, nil
}

func schemaFieldErrors(doc any, err error) []FieldError {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return []FieldError{{Loc: []any{"body"}, Msg: err.Error(), Type: "value_error"}}
	}

	var out []FieldError
	collectFieldErrors(doc, ve, &out)
	sort.SliceStable(out, func(i, j int) bool {
		return fmt.Sprint(out[i].Loc) < fmt.Sprint(out[j].Loc)
	})
	return out
}

func collectFieldErrors(doc any, ve *jsonschema.ValidationError, out *[]FieldError) {
	if len(ve.Causes) > 0 {
		for _, cause := range ve.Causes {
			collectFieldErrors(doc, cause, out)
		}
		return
	}

	loc := append([]any{"body"}, pointerToLoc(ve.InstanceLocation)...)
	keyword := ve.KeywordLocation[strings.LastIndex(ve.KeywordLocation, "/")+1:]

	switch keyword {
	case "required":
		obj, _ := doc.(map[string]any)
		for _, field := range requiredFields {
			if _, ok := obj[field]; ok {
				continue
			}
			*out = append(*out, FieldError{
				Loc:  append(append([]any{}, loc...), field),
				Msg:  "field required",
				Type: "value_error.missing",
			})
		}
	case "type":
		*out = append(*out, FieldError{Loc: loc, Msg: ve.Message, Type: "type_error"})
	default:
		*out = append(*out, FieldError{Loc: loc, Msg: ve.Message, Type: "value_error." + keyword})
	}
}

func pointerToLoc(ptr string) []any {
	ptr = strings.TrimPrefix(ptr, "#")
	ptr = strings.TrimPrefix(ptr, "/")
	if ptr == "" {
		return nil
	}

	var loc []any
	for _, part := range strings.Split(ptr, "/") {
		part = strings.ReplaceAll(part, "~1", "/")
		part = strings.ReplaceAll(part, "~0", "~")
		if idx, err := strconv.Atoi(part); err == nil {
			loc = append(loc, idx)
			continue
		}
		loc = append(loc, part)
	}
	return loc
}

func parseTodoID(raw string) (int, []FieldError) {
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, []FieldError{{
			Loc:  []any{"path", "todo_id"},
			Msg:  "value is not a valid integer",
			Type: "type_error.integer",
		}}
	}
	return id, nil
}
