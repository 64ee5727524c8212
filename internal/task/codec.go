package task

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// CurrentVersion is the payload version written by Encode.
// Version 0 is the bare JSON array written before payloads were versioned.
const CurrentVersion = 1

var (
	// ErrCorrupt indicates a payload that cannot be parsed or fails validation.
	ErrCorrupt = errors.New("corrupt task payload")

	// ErrUnsupportedVersion indicates a payload written by a newer format.
	ErrUnsupportedVersion = errors.New("unsupported task payload version")
)

// envelope is the persisted form of a collection.
type envelope struct {
	Version int    `json:"version"`
	Tasks   []Task `json:"tasks"`
}

const schemaURL = "tasklist://tasks.schema.json"

const schemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "definitions": {
    "task": {
      "type": "object",
      "required": ["id", "text", "completed", "createdAt"],
      "properties": {
        "id": {"type": "string", "minLength": 1},
        "text": {"type": "string", "pattern": "\\S"},
        "completed": {"type": "boolean"},
        "createdAt": {"type": "integer", "minimum": 0}
      }
    },
    "tasks": {
      "type": "array",
      "items": {"$ref": "#/definitions/task"}
    }
  },
  "oneOf": [
    {"$ref": "#/definitions/tasks"},
    {
      "type": "object",
      "required": ["version", "tasks"],
      "properties": {
        "version": {"type": "integer", "minimum": 1},
        "tasks": {"$ref": "#/definitions/tasks"}
      }
    }
  ]
}`

var compileSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, strings.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
})

// Encode serializes tasks as a versioned payload.
func Encode(tasks []Task) ([]byte, error) {
	if tasks == nil {
		tasks = []Task{}
	}
	data, err := json.Marshal(envelope{Version: CurrentVersion, Tasks: tasks})
	if err != nil {
		return nil, fmt.Errorf("marshal tasks: %w", err)
	}
	return data, nil
}

// Decode parses a payload produced by Encode, or a legacy bare array.
// Failures wrap ErrCorrupt, except payloads from a newer format version,
// which wrap ErrUnsupportedVersion.
func Decode(data []byte) ([]Task, error) {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	// Check the version before the schema: a newer shape would fail validation
	// and must not be mistaken for corruption.
	if obj, ok := raw.(map[string]interface{}); ok {
		if v, ok := obj["version"].(float64); ok && v > CurrentVersion {
			return nil, fmt.Errorf("%w: %v", ErrUnsupportedVersion, v)
		}
	}

	schema, err := compileSchema()
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(raw); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCorrupt, summarizeSchemaError(err))
	}

	var tasks []Task
	if _, isArray := raw.([]interface{}); isArray {
		err = json.Unmarshal(data, &tasks)
	} else {
		var env envelope
		err = json.Unmarshal(data, &env)
		tasks = env.Tasks
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	seen := make(map[string]struct{}, len(tasks))
	for _, t := range tasks {
		if _, dup := seen[t.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate task id %q", ErrCorrupt, t.ID)
		}
		seen[t.ID] = struct{}{}
	}

	if tasks == nil {
		tasks = []Task{}
	}
	return tasks, nil
}

// summarizeSchemaError reduces a schema validation error to its deepest cause.
func summarizeSchemaError(err error) string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err.Error()
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	if ve.InstanceLocation == "" {
		return ve.Message
	}
	return fmt.Sprintf("%s: %s", ve.InstanceLocation, ve.Message)
}
