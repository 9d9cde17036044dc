package tasks

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

const collectionSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["id", "text", "priority", "completed"],
    "properties": {
      "id": {"type": "integer", "minimum": 1},
      "text": {"type": "string", "minLength": 1},
      "priority": {"enum": ["Urgent", "Medium", "Low"]},
      "completed": {"type": "boolean"}
    }
  }
}`

var schema = jsonschema.MustCompileString("tasklist://collection.json", collectionSchema)

// Encode serializes the collection as a JSON array. An empty or nil
// collection encodes as [].
func Encode(list []Task) ([]byte, error) {
	if list == nil {
		list = []Task{}
	}
	return json.Marshal(list)
}

// Decode parses a persisted collection and checks it against the schema and
// the collection invariants: unique ids and non-blank text.
func Decode(data []byte) ([]Task, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}

	var list []Task
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	seen := make(map[int64]struct{}, len(list))
	for i, t := range list {
		if _, dup := seen[t.ID]; dup {
			return nil, fmt.Errorf("item %d: duplicate id %d", i, t.ID)
		}
		seen[t.ID] = struct{}{}
		if strings.TrimSpace(t.Text) == "" {
			return nil, fmt.Errorf("item %d: %w", i, ErrTextRequired)
		}
	}
	if list == nil {
		list = []Task{}
	}
	return list, nil
}
