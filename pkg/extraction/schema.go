package extraction

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"

	"github.com/ekaya-inc/rfqportal/pkg/llm"
	"github.com/ekaya-inc/rfqportal/pkg/prompts"
)

// quoteSchemaURL names the schema inside the compiler; nothing is fetched.
const quoteSchemaURL = "https://rfqportal.local/schemas/supplier_quote.json"

var (
	quoteSchema    = buildQuoteSchema()
	quoteValidator = compileQuoteSchema(quoteSchema)
)

func buildQuoteSchema() *llm.ResponseSchema {
	properties := make(map[string]any, len(prompts.QuoteFields))
	required := make([]string, 0, len(prompts.QuoteFields))

	for _, field := range prompts.QuoteFields {
		prop := map[string]any{
			"type":        []string{field.Type, "null"},
			"description": field.Description,
		}
		if field.Type == "array" {
			prop["items"] = map[string]any{"type": "string"}
		}
		properties[field.Name] = prop
		required = append(required, field.Name)
	}

	definition, err := json.Marshal(map[string]any{
		"type":                 "object",
		"properties":           properties,
		"required":             required,
		"additionalProperties": false,
	})
	if err != nil {
		panic("extraction: marshal quote schema: " + err.Error())
	}

	return &llm.ResponseSchema{
		Name:        "supplier_quote",
		Description: "Structured quote extracted from a supplier email",
		Definition:  definition,
		Strict:      true,
	}
}

func compileQuoteSchema(schema *llm.ResponseSchema) *jsonschema.Schema {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schema.Definition))
	if err != nil {
		panic("extraction: parse quote schema: " + err.Error())
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource(quoteSchemaURL, doc); err != nil {
		panic("extraction: add quote schema: " + err.Error())
	}
	compiled, err := c.Compile(quoteSchemaURL)
	if err != nil {
		panic("extraction: compile quote schema: " + err.Error())
	}
	return compiled
}

// QuoteSchema returns the JSON Schema sent with every extraction request.
// Model replies are validated against the same schema.
func QuoteSchema() *llm.ResponseSchema {
	return quoteSchema
}

// validatePayload checks a model reply against the quote schema. Keys the
// model left out count as null, and an echoed schema_version is ignored.
func validatePayload(body string) error {
	instance, err := jsonschema.UnmarshalJSON(strings.NewReader(body))
	if err != nil {
		return &Failure{Reason: ReasonMalformed, Cause: err}
	}
	payload, ok := instance.(map[string]any)
	if !ok {
		return &Failure{Reason: ReasonMalformed, Message: "response is not a JSON object"}
	}

	delete(payload, "schema_version")
	for _, field := range prompts.QuoteFields {
		if _, present := payload[field.Name]; !present {
			payload[field.Name] = nil
		}
	}

	err = quoteValidator.Validate(payload)
	if err == nil {
		return nil
	}

	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return schemaFailure("", err)
	}
	if unknown := unexpectedKeys(verr); len(unknown) > 0 {
		return &Failure{
			Reason:  ReasonSchemaViolation,
			Field:   unknown[0],
			Message: fmt.Sprintf("unexpected keys %v", unknown),
		}
	}
	return schemaFailure(violatedField(verr), err)
}

func unexpectedKeys(verr *jsonschema.ValidationError) []string {
	if extra, ok := verr.ErrorKind.(*kind.AdditionalProperties); ok {
		keys := slices.Clone(extra.Properties)
		slices.Sort(keys)
		return keys
	}
	for _, cause := range verr.Causes {
		if keys := unexpectedKeys(cause); len(keys) > 0 {
			return keys
		}
	}
	return nil
}

// violatedField returns the top-level key of the first failing value.
func violatedField(verr *jsonschema.ValidationError) string {
	if len(verr.InstanceLocation) > 0 {
		return verr.InstanceLocation[0]
	}
	for _, cause := range verr.Causes {
		if field := violatedField(cause); field != "" {
			return field
		}
	}
	return ""
}
