// Package aiengine proxies clinical AI requests to the external inference
// service. The service owns the model logic; this package only relays
// payloads and responses.
package aiengine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// Client calls the AI engine over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient constructs a Client for the given engine base URL. Summarization
// of large reports can be slow, so the timeout is generous.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 120 * time.Second},
	}
}

// TreatmentRequest is the payload for treatment generation.
type TreatmentRequest struct {
	Diagnosis string `json:"diagnosis"`
	Symptoms  string `json:"symptoms"`
	Age       int    `json:"age,omitempty"`
}

// MedicineRequest is the payload for medicine suggestions.
type MedicineRequest struct {
	Symptoms  string `json:"symptoms"`
	Age       int    `json:"age,omitempty"`
	Allergies string `json:"allergies,omitempty"`
}

// GenerateTreatment asks the engine for a treatment plan.
func (c *Client) GenerateTreatment(ctx context.Context, req TreatmentRequest) (json.RawMessage, error) {
	return c.postJSON(ctx, "/generate-treatment", req)
}

// AnalyzeVitals relays a vitals payload for analysis. The payload shape is
// owned by the engine, so it is passed through untouched.
func (c *Client) AnalyzeVitals(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
	return c.postJSON(ctx, "/analyze-vitals", payload)
}

// SuggestMedicines asks the engine for medicine suggestions.
func (c *Client) SuggestMedicines(ctx context.Context, req MedicineRequest) (json.RawMessage, error) {
	return c.postJSON(ctx, "/suggest-medicines", req)
}

// SummarizeReport streams a stored report document to the engine as a
// multipart upload and returns the summary response.
func (c *Client) SummarizeReport(ctx context.Context, fileName string, content io.Reader) (json.RawMessage, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		return nil, fmt.Errorf("create multipart field: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("copy report content: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("finalize multipart body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/summarize-report", &buf)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())

	return c.do(httpReq)
}

func (c *Client) postJSON(ctx context.Context, path string, payload interface{}) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	return c.do(httpReq)
}

func (c *Client) do(req *http.Request) (json.RawMessage, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call AI engine: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read AI engine response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("AI engine returned status %d", resp.StatusCode)
	}

	return json.RawMessage(body), nil
}
