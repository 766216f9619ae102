package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// compiledSchemas caches compiled schemas by *Schema. Schemas are package
// level values, so the pointer is a stable key and two schemas that share
// a name never collide.
var compiledSchemas sync.Map // map[*Schema]*jsonschema.Schema

// validateResponse checks raw against schema and returns the JSON body
// with any markdown fence removed, or *ErrInvalidResponse. A nil schema
// accepts anything unchanged.
func validateResponse(schema *Schema, raw json.RawMessage) (json.RawMessage, error) {
	if schema == nil {
		return raw, nil
	}
	invalid := func(format string, args ...any) error {
		return &ErrInvalidResponse{Content: raw, Err: fmt.Errorf(format, args...)}
	}

	// Some models wrap JSON in a markdown fence even in JSON mode.
	body := stripFence(raw)
	if len(body) == 0 {
		return nil, invalid("empty response for schema %q", schema.Name)
	}

	parsed, err := jsonschema.UnmarshalJSON(bytes.NewReader(body))
	if err != nil {
		return nil, invalid("invalid JSON: %w", err)
	}

	compiled, err := compileSchema(schema)
	if err != nil {
		return nil, invalid("compile schema %q: %w", schema.Name, err)
	}
	if err := compiled.Validate(parsed); err != nil {
		return nil, invalid("schema %q validation failed: %w", schema.Name, err)
	}
	return json.RawMessage(body), nil
}

func compileSchema(schema *Schema) (*jsonschema.Schema, error) {
	if cached, ok := compiledSchemas.Load(schema); ok {
		return cached.(*jsonschema.Schema), nil
	}

	// The compiler wants the decoded JSON form, not Go maps with typed
	// slices, so round-trip the definition.
	def, err := json.Marshal(schema.Definition)
	if err != nil {
		return nil, fmt.Errorf("marshal schema definition: %w", err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(def))
	if err != nil {
		return nil, fmt.Errorf("parse schema definition: %w", err)
	}

	c := jsonschema.NewCompiler()
	url := fmt.Sprintf("schema://prepfunnel/%s.json", schema.Name)
	if err := c.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("add resource: %w", err)
	}
	compiled, err := c.Compile(url)
	if err != nil {
		return nil, err
	}

	actual, _ := compiledSchemas.LoadOrStore(schema, compiled)
	return actual.(*jsonschema.Schema), nil
}

// stripFence removes a surrounding ``` or ```json fence.
func stripFence(raw json.RawMessage) []byte {
	b := bytes.TrimSpace(raw)
	if !bytes.HasPrefix(b, []byte("```")) {
		return b
	}
	b = bytes.TrimPrefix(b, []byte("```"))
	if nl := bytes.IndexByte(b, '\n'); nl >= 0 {
		b = b[nl+1:]
	} else {
		return nil
	}
	b = bytes.TrimSuffix(bytes.TrimSpace(b), []byte("```"))
	return bytes.TrimSpace(b)
}
