package extract

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed vehicle_listing.schema.json
var vehicleListingSchemaJSON string

// Listing is one extracted vehicle listing as returned by the extraction
// service.
type Listing struct {
	Title       string   `json:"title"`
	Brand       *string  `json:"brand,omitempty"`
	Description *string  `json:"description,omitempty"`
	BodyType    *string  `json:"body_type,omitempty"`
	ModelTokens []string `json:"model_tokens,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Currency    *string  `json:"currency,omitempty"`
}

// Payload is the extraction service's response envelope.
type Payload struct {
	PayloadVersion string    `json:"payload_version"`
	SourceURL      *string   `json:"source_url,omitempty"`
	Listings       []Listing `json:"listings"`
}

var (
	compileOnce       sync.Once
	compiledSchema    *jsonschema.Schema
	compiledSchemaErr error
)

// ValidateListingPayload checks an extraction response against the embedded
// v1 schema plus semantic rules the schema cannot express.
func ValidateListingPayload(payload json.RawMessage) (*Payload, error) {
	value, err := decodeStrictJSON(payload)
	if err != nil {
		return nil, fmt.Errorf("decode payload JSON: %w", err)
	}

	schema, err := loadSchema()
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}

	if err := schema.Validate(value); err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	normalized, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("normalize payload JSON: %w", err)
	}

	var parsed Payload
	if err := json.Unmarshal(normalized, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}

	if err := validateSemantics(&parsed); err != nil {
		return nil, err
	}

	return &parsed, nil
}

func loadSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		compiler.AssertFormat = true

		if err := compiler.AddResource("vehicle_listing.schema.json", strings.NewReader(vehicleListingSchemaJSON)); err != nil {
			compiledSchemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}

		schema, err := compiler.Compile("vehicle_listing.schema.json")
		if err != nil {
			compiledSchemaErr = fmt.Errorf("compile schema: %w", err)
			return
		}

		compiledSchema = schema
	})

	if compiledSchemaErr != nil {
		return nil, compiledSchemaErr
	}
	if compiledSchema == nil {
		return nil, fmt.Errorf("schema not initialized")
	}
	return compiledSchema, nil
}

func decodeStrictJSON(raw []byte) (any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("payload is empty")
	}

	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, err
	}

	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("payload contains trailing content")
	}

	return value, nil
}

func validateSemantics(payload *Payload) error {
	if payload == nil {
		return fmt.Errorf("payload is nil")
	}
	if strings.TrimSpace(payload.PayloadVersion) != "v1" {
		return fmt.Errorf("payload_version must be v1")
	}

	for i, listing := range payload.Listings {
		if strings.TrimSpace(listing.Title) == "" {
			return fmt.Errorf("listings[%d].title must not be empty", i)
		}
		if listing.Price != nil && *listing.Price < 0 {
			return fmt.Errorf("listings[%d].price must not be negative", i)
		}
		for j, token := range listing.ModelTokens {
			if strings.TrimSpace(token) == "" {
				return fmt.Errorf("listings[%d].model_tokens[%d] must not be empty", i, j)
			}
		}
	}

	return nil
}
