package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/a3tai/mcp-notice-extractor/internal/pdf/extraction"
)

const vocabularySchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["fields"],
  "additionalProperties": false,
  "properties": {
    "fields": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["name"],
        "additionalProperties": false,
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "variants": {
            "type": "array",
            "items": {"type": "string", "minLength": 1}
          }
        }
      }
    }
  }
}`

type vocabularyFile struct {
	Fields []struct {
		Name     string   `json:"name"`
		Variants []string `json:"variants"`
	} `json:"fields"`
}

// LoadVocabulary reads a vocabulary file. An empty path yields the built-in
// meeting notice vocabulary.
func LoadVocabulary(path string) (*extraction.Vocabulary, error) {
	if path == "" {
		return extraction.DefaultVocabulary(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vocabulary: %w", err)
	}
	return ParseVocabulary(data)
}

// ParseVocabulary validates vocabulary JSON and builds the vocabulary from it
func ParseVocabulary(data []byte) (*extraction.Vocabulary, error) {
	if err := validateVocabulary(data); err != nil {
		return nil, err
	}

	var file vocabularyFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("unmarshal vocabulary: %w", err)
	}

	fields := make([]extraction.Field, 0, len(file.Fields))
	for _, f := range file.Fields {
		fields = append(fields, extraction.Field{Name: f.Name, Variants: f.Variants})
	}

	vocab, err := extraction.NewVocabulary(fields...)
	if err != nil {
		return nil, fmt.Errorf("build vocabulary: %w", err)
	}
	return vocab, nil
}

func validateVocabulary(data []byte) error {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("vocabulary.json", bytes.NewReader([]byte(vocabularySchema))); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("vocabulary.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal vocabulary: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("vocabulary does not match schema: %w", err)
	}
	return nil
}
