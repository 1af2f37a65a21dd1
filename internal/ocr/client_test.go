package ocr

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mannyyang/docubeam/internal/apperr"
	"github.com/mannyyang/docubeam/internal/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient(ClientConfig{APIKey: "test-key", BaseURL: srv.URL}, slog.Default())
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	if _, err := NewClient(ClientConfig{}, slog.Default()); err == nil {
		t.Fatal("expected error for missing API key")
	}
}

func TestExtractTextSendsBase64Payload(t *testing.T) {
	var got models.OCRRequest
	var auth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(models.OCRResponse{
			Pages: []models.OCRPage{{Index: 0, Markdown: "hello"}},
		})
	})

	resp, err := c.ExtractText(context.Background(), []byte("%PDF-1.4 fake"))
	if err != nil {
		t.Fatal(err)
	}
	if auth != "Bearer test-key" {
		t.Fatalf("unexpected auth header %q", auth)
	}
	if got.Model != defaultModel {
		t.Fatalf("unexpected model %q", got.Model)
	}
	if !got.IncludeImageBase64 {
		t.Fatal("image extraction not requested")
	}
	if got.Document.Type != "document_url" {
		t.Fatalf("unexpected document type %q", got.Document.Type)
	}
	if !strings.HasPrefix(got.Document.DocumentURL, "data:application/pdf;base64,") {
		t.Fatalf("payload is not a base64 data URI: %q", got.Document.DocumentURL[:40])
	}
	if len(resp.Pages) != 1 || resp.Pages[0].Markdown != "hello" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestExtractTextDecodesProviderError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error":{"message":"document too large"}}`))
	})

	_, err := c.ExtractText(context.Background(), []byte("%PDF"))
	var pe *apperr.ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	if pe.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("unexpected status %d", pe.StatusCode)
	}
	if pe.Message != "document too large" {
		t.Fatalf("remote message not surfaced: %q", pe.Message)
	}
}

func TestExtractTextFallsBackToRawBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream exploded"))
	})

	_, err := c.ExtractText(context.Background(), []byte("%PDF"))
	var pe *apperr.ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	if pe.Message != "upstream exploded" {
		t.Fatalf("raw body not surfaced: %q", pe.Message)
	}
}

func TestExtractTextRejectsEmptyBuffer(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("provider must not be called for an empty buffer")
	})
	if _, err := c.ExtractText(context.Background(), nil); !apperr.IsValidation(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}
