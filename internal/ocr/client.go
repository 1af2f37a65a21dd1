// Package ocr invokes the external OCR provider and normalizes its
// page-indexed responses into the internal 1-based representation.
package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mannyyang/docubeam/internal/apperr"
	"github.com/mannyyang/docubeam/internal/models"
	"github.com/mannyyang/docubeam/internal/validate"
)

const (
	defaultBaseURL = "https://api.mistral.ai"
	defaultModel   = "mistral-ocr-latest"
	defaultTimeout = 5 * time.Minute

	ocrEndpoint = "/v1/ocr"
)

// ClientConfig configures the provider client.
type ClientConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Client talks to the OCR provider over HTTP.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	log        *slog.Logger
}

// NewClient validates the credential and builds a Client.
func NewClient(cfg ClientConfig, log *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("ocr client: API key must be set")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		log:        log,
	}, nil
}

// ExtractText base64-encodes the PDF, posts it to the provider requesting
// image extraction, and returns the provider's page-indexed response.
func (c *Client) ExtractText(ctx context.Context, pdf []byte) (*models.OCRResponse, error) {
	if err := validate.Buffer(pdf, 1); err != nil {
		return nil, err
	}

	reqBody := models.OCRRequest{
		Model: c.model,
		Document: models.DocumentURL{
			Type:        "document_url",
			DocumentURL: "data:application/pdf;base64," + base64.StdEncoding.EncodeToString(pdf),
		},
		IncludeImageBase64: true,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal ocr request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+ocrEndpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build ocr request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	c.log.Info("calling ocr provider", "model", c.model, "pdfBytes", len(pdf))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call ocr provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.decodeError(resp)
	}

	var out models.OCRResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode ocr response: %w", err)
	}
	c.log.Info("ocr provider responded", "pages", len(out.Pages))
	return &out, nil
}

// decodeError turns a non-2xx response into a ProviderError carrying the
// remote message when the body follows the {error:{message}} convention.
func (c *Client) decodeError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	var remote models.OCRErrorResponse
	msg := ""
	if err := json.Unmarshal(body, &remote); err == nil {
		msg = remote.Error.Message
	}
	if msg == "" {
		msg = string(body)
	}
	return &apperr.ProviderError{StatusCode: resp.StatusCode, Message: msg}
}
