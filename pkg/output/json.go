// Package output writes extracted tender records as JSON documents and
// XLSX reports.
package output

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/xhad/tenders/internal/models"
)

//go:embed schema/record.schema.json
var recordSchema string

const schemaURL = "record.schema.json"

// ErrNoRecords is returned when asked to write an empty record set.
var ErrNoRecords = errors.New("no records to write")

// JSONWriter serializes records with four-space indentation after checking
// them against the record schema.
type JSONWriter struct {
	schema *jsonschema.Schema
}

func NewJSONWriter() (*JSONWriter, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, strings.NewReader(recordSchema)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &JSONWriter{schema: schema}, nil
}

// MarshalRecord encodes a single record as a JSON object.
func (w *JSONWriter) MarshalRecord(record models.ExtractedRecord) ([]byte, error) {
	if err := w.Validate(record); err != nil {
		return nil, err
	}
	return encode(record)
}

// MarshalRecords encodes records as a JSON array.
func (w *JSONWriter) MarshalRecords(records []models.ExtractedRecord) ([]byte, error) {
	if len(records) == 0 {
		return nil, ErrNoRecords
	}
	for i, rec := range records {
		if err := w.Validate(rec); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
	}
	return encode(records)
}

func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encode records: %w", err)
	}
	return buf.Bytes(), nil
}

// Validate checks a record's JSON form against the record schema.
func (w *JSONWriter) Validate(record models.ExtractedRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal record: %w", err)
	}
	if err := w.schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}

// WriteRecord writes a single record to path, replacing any existing file.
func (w *JSONWriter) WriteRecord(path string, record models.ExtractedRecord) error {
	data, err := w.MarshalRecord(record)
	if err != nil {
		return err
	}
	return writeFile(path, data)
}

// WriteRecords writes records to path as an array.
func (w *JSONWriter) WriteRecords(path string, records []models.ExtractedRecord) error {
	data, err := w.MarshalRecords(records)
	if err != nil {
		return err
	}
	return writeFile(path, data)
}

func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
