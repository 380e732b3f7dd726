package dto

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/jsamuelsen11/todo-resource-service/internal/domain"
)

const todoSchemaURL = "todo.schema.json"

// todoSchema describes the writable fields shared by POST, PUT and PATCH
// bodies. Unknown keys are allowed and ignored.
const todoSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "title":       { "type": "string" },
    "description": { "type": "string" },
    "completed":   { "type": "boolean" }
  }
}`

var todoBodySchema = mustCompile(todoSchemaURL, todoSchema)

func mustCompile(url, schema string) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(url, strings.NewReader(schema)); err != nil {
		panic(fmt.Sprintf("adding schema %s: %v", url, err))
	}
	return compiler.MustCompile(url)
}

// ValidateTodoBody checks a decoded JSON document against the to-do body
// schema. Violations are returned as a *domain.ValidationError keyed by
// field name ("body" for the document itself).
func ValidateTodoBody(doc any) error {
	err := todoBodySchema.Validate(doc)
	if err == nil {
		return nil
	}

	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return fmt.Errorf("validating body: %w", err)
	}

	fields := make(map[string]string)
	collectSchemaErrors(verr, fields)
	if len(fields) == 0 {
		fields["body"] = verr.Message
	}
	return &domain.ValidationError{Fields: fields}
}

// collectSchemaErrors walks the cause tree and records the first leaf
// message for each instance location.
func collectSchemaErrors(err *jsonschema.ValidationError, fields map[string]string) {
	if len(err.Causes) == 0 {
		field := strings.TrimPrefix(err.InstanceLocation, "/")
		if field == "" {
			field = "body"
		}
		if _, seen := fields[field]; !seen {
			fields[field] = err.Message
		}
		return
	}
	causes := err.Causes
	sort.SliceStable(causes, func(i, j int) bool {
		return causes[i].InstanceLocation < causes[j].InstanceLocation
	})
	for _, cause := range causes {
		collectSchemaErrors(cause, fields)
	}
}
