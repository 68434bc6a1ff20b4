package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"logbook/internal/certs"
	"logbook/internal/core"
	"logbook/internal/services"
	"logbook/internal/views"
)

func TestJSONResponseBuilder_Basic(t *testing.T) {
	w := httptest.NewRecorder()
	NewJSONResponse().
		Status(http.StatusCreated).
		Revision("r1").
		Header("X-Custom", "yes").
		Data(map[string]int{"count": 2}).
		Write(w)

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d", w.Code)
	}
	if got := w.Header().Get("ETag"); got != `"r1"` {
		t.Errorf("ETag = %q", got)
	}
	if w.Header().Get("X-Custom") != "yes" {
		t.Error("custom header missing")
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	var body map[string]int
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body["count"] != 2 {
		t.Fatalf("body = %s (%v)", w.Body.String(), err)
	}
}

func TestJSONResponseBuilder_NoPayload(t *testing.T) {
	w := httptest.NewRecorder()
	NewJSONResponse().Status(http.StatusNoContent).Revision("").Write(w)
	if w.Code != http.StatusNoContent || w.Body.Len() != 0 {
		t.Fatalf("unexpected response %d %q", w.Code, w.Body.String())
	}
	if w.Header().Get("ETag") != "" {
		t.Error("empty revision must not set an ETag")
	}
}

func TestErrorResponse(t *testing.T) {
	tests := []struct {
		name    string
		builder *JSONResponseBuilder
		code    int
	}{
		{"bad request", BadRequestError("bad"), http.StatusBadRequest},
		{"unprocessable", UnprocessableEntityError("bad"), http.StatusUnprocessableEntity},
		{"not found", NotFoundError("bad"), http.StatusNotFound},
		{"conflict", ConflictError("bad"), http.StatusConflict},
		{"internal", InternalServerError("bad"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.builder.Write(w)
			if w.Code != tt.code {
				t.Errorf("status = %d, want %d", w.Code, tt.code)
			}
			var body errorBody
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body.Error != "bad" {
				t.Errorf("body = %s", w.Body.String())
			}
		})
	}
}

func TestMethodNotAllowedError(t *testing.T) {
	w := httptest.NewRecorder()
	MethodNotAllowedError("GET, POST").Write(w)
	if w.Code != http.StatusMethodNotAllowed || w.Header().Get("Allow") != "GET, POST" {
		t.Fatalf("unexpected response %d allow=%q", w.Code, w.Header().Get("Allow"))
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("load: %w", core.ErrUnknownKind), http.StatusNotFound},
		{core.ErrIndexOutOfRange, http.StatusNotFound},
		{certs.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("save: %w", core.ErrConflict), http.StatusConflict},
		{core.ErrSchemaMismatch, http.StatusUnprocessableEntity},
		{core.ErrUnknownColumn, http.StatusUnprocessableEntity},
		{core.ErrParseFailure, http.StatusUnprocessableEntity},
		{core.ErrMissingField, http.StatusUnprocessableEntity},
		{services.ErrValidation, http.StatusUnprocessableEntity},
		{views.ErrEmptyDelimiter, http.StatusUnprocessableEntity},
		{certs.ErrUnsupportedType, http.StatusUnprocessableEntity},
		{certs.ErrInvalidName, http.StatusUnprocessableEntity},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestDomainErrorHidesInternalMessage(t *testing.T) {
	w := httptest.NewRecorder()
	DomainError(errors.New("open /secret/path: permission denied")).Write(w)

	var body errorBody
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error != "internal error" {
		t.Fatalf("internal detail leaked: %q", body.Error)
	}
}
