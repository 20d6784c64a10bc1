package classifier

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// responseSchema constrains the classifier's analyze response. The severity
// value set is deliberately not enumerated here: taxonomy membership is
// checked by severity.Parse so the error names the offending label.
var responseSchema = map[string]any{
	"type":     "object",
	"required": []any{"crisis_level", "confidence_score"},
	"properties": map[string]any{
		"crisis_level": map[string]any{"type": "string"},
		"confidence_score": map[string]any{
			"type":    "number",
			"minimum": 0,
			"maximum": 1,
		},
		"processing_time_ms": map[string]any{"type": "number", "minimum": 0},
		"detected_categories": map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "string"},
		},
	},
}

var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

// validateResponse checks raw JSON against the response schema.
func validateResponse(raw []byte) error {
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	compiled, err := getCompiledSchema()
	if err != nil {
		return fmt.Errorf("compile response schema: %w", err)
	}

	if err := compiled.Validate(parsed); err != nil {
		return fmt.Errorf("response schema validation failed: %w", err)
	}
	return nil
}

func getCompiledSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		// The jsonschema library expects a parsed JSON value, not raw bytes.
		defBytes, err := json.Marshal(responseSchema)
		if err != nil {
			compileErr = err
			return
		}
		var defParsed any
		if err := json.Unmarshal(defBytes, &defParsed); err != nil {
			compileErr = err
			return
		}

		c := jsonschema.NewCompiler()
		const schemaURL = "schema://classify-response.json"
		if err := c.AddResource(schemaURL, defParsed); err != nil {
			compileErr = err
			return
		}
		compiledSchema, compileErr = c.Compile(schemaURL)
	})
	return compiledSchema, compileErr
}
