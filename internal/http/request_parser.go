// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data:
// record bodies in JSON or form encoding, path and query parameters, and the
// If-Match revision precondition.

package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"logbook/internal/core"
	"logbook/internal/records"
)

// maxBodyBytes bounds JSON and form bodies; certificate uploads have their
// own limit.
const maxBodyBytes = 1 << 20

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once and stores it for subsequent parsing. A body over
// maxBodyBytes fails Parse with *http.MaxBytesError.
func NewRequestBodyParser(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}

	p.body, p.err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return p
}

// Parse attempts to parse the body as a JSON object or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if p.body[0] == '{' {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// Get returns a string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return strings.TrimSpace(sanitizeInput(stringValue(val)))
		}
	}
	if p.formData != nil {
		return strings.TrimSpace(sanitizeInput(p.formData.Get(key)))
	}
	return ""
}

// GetStrings returns a list value: a JSON array, or every form value of key.
// Empty entries are dropped.
func (p *RequestBodyParser) GetStrings(key string) []string {
	var raw []string
	switch {
	case p.jsonData != nil:
		if arr, ok := p.jsonData[key].([]any); ok {
			for _, v := range arr {
				raw = append(raw, stringValue(v))
			}
		}
	case p.formData != nil:
		raw = p.formData[key]
	}

	var out []string
	for _, v := range raw {
		if v = strings.TrimSpace(sanitizeInput(v)); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Record returns the whole body as one record. Cell text is sanitized but
// not trimmed.
func (p *RequestBodyParser) Record() core.Record {
	rec := make(core.Record)
	if p.jsonData != nil {
		for k, v := range p.jsonData {
			rec[k] = sanitizeInput(stringValue(v))
		}
		return rec
	}
	for k := range p.formData {
		rec[k] = sanitizeInput(p.formData.Get(k))
	}
	return rec
}

// Records returns the JSON array under key as records.
func (p *RequestBodyParser) Records(key string) ([]core.Record, error) {
	if !p.IsJSON() {
		return nil, fmt.Errorf("%w: expected a JSON body", core.ErrParseFailure)
	}
	raw, ok := p.jsonData[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrMissingField, key)
	}
	arr, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %q must be an array", core.ErrParseFailure, key)
	}
	out := make([]core.Record, 0, len(arr))
	for i, item := range arr {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: %s[%d] must be an object", core.ErrParseFailure, key, i)
		}
		rec := make(core.Record, len(obj))
		for k, v := range obj {
			rec[k] = sanitizeInput(stringValue(v))
		}
		out = append(out, rec)
	}
	return out, nil
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// stringValue converts a decoded JSON value to cell text.
func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// ParseKind resolves the {kind} path value.
func ParseKind(r *http.Request) (records.Kind, error) {
	return records.ParseKind(r.PathValue("kind"))
}

// ParseRow resolves the {row} path value as a zero-based row index.
func ParseRow(r *http.Request) (int, error) {
	v := r.PathValue("row")
	row, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: row %q", core.ErrParseFailure, v)
	}
	return row, nil
}

// IfMatch returns the revision required by the If-Match header, or "" when
// the write is unconditional.
func IfMatch(r *http.Request) string {
	v := strings.TrimSpace(r.Header.Get("If-Match"))
	if v == "" || v == "*" {
		return ""
	}
	v = strings.TrimPrefix(v, "W/")
	return strings.Trim(v, `"`)
}

// ParseDateParam reads a date query parameter, falling back to def when it
// is absent.
func ParseDateParam(query url.Values, key string, def core.Date) (core.Date, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return def, nil
	}
	return core.ParseDate(v)
}

// RequireQuery returns the trimmed query parameter key or a missing-field
// error.
func RequireQuery(query url.Values, key string) (string, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return "", fmt.Errorf("%w: query parameter %q", core.ErrMissingField, key)
	}
	return v, nil
}
