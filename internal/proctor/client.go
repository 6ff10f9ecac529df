package proctor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	neturl "net/url"
	"time"

	"github.com/hirelens/hirelens/internal/model"
)

const defaultHTTPTimeout = 30 * time.Second

// APIClient implements Backend over the candidate assessment HTTP API.
// Error responses on this surface are flat {"error": "..."} objects.
type APIClient struct {
	baseURL string
	token   string
	http    *http.Client
}

// ClientOption customizes an APIClient.
type ClientOption func(*APIClient)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *APIClient) { c.http = h }
}

// NewAPIClient builds a Backend talking to baseURL, authenticating every
// request with the candidate bearer token.
func NewAPIClient(baseURL, token string, opts ...ClientOption) *APIClient {
	c := &APIClient{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *APIClient) Start(ctx context.Context, attemptID int) (*model.StartAssessmentResponse, error) {
	var out model.StartAssessmentResponse
	url := fmt.Sprintf("%s/api/assessment/start/%d", c.baseURL, attemptID)
	if err := c.doJSON(ctx, http.MethodPost, url, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *APIClient) NextQuestion(ctx context.Context, attemptID int, usedMCQIDs []int) (*model.NextQuestionResponse, *model.CompletionResponse, error) {
	if usedMCQIDs == nil {
		usedMCQIDs = []int{}
	}
	used, err := json.Marshal(usedMCQIDs)
	if err != nil {
		return nil, nil, err
	}
	params := neturl.Values{"used_mcq_ids": {string(used)}}
	url := fmt.Sprintf("%s/api/assessment/next-question/%d?%s", c.baseURL, attemptID, params.Encode())

	body, err := c.do(ctx, http.MethodGet, url, "", nil)
	if err != nil {
		return nil, nil, err
	}

	// Completion and question payloads share the endpoint; the message
	// field distinguishes them.
	var probe struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return nil, nil, fmt.Errorf("decode next question response: %w", err)
	}
	if probe.Message != "" {
		var done model.CompletionResponse
		if err := json.Unmarshal(body, &done); err != nil {
			return nil, nil, fmt.Errorf("decode completion response: %w", err)
		}
		return nil, &done, nil
	}
	var q model.NextQuestionResponse
	if err := json.Unmarshal(body, &q); err != nil {
		return nil, nil, fmt.Errorf("decode question response: %w", err)
	}
	return &q, nil, nil
}

func (c *APIClient) SubmitAnswer(ctx context.Context, attemptID int, req *model.SubmitAnswerRequest) (*model.SubmitAnswerResponse, error) {
	var out model.SubmitAnswerResponse
	url := fmt.Sprintf("%s/api/assessment/submit-answer/%d", c.baseURL, attemptID)
	if err := c.doJSON(ctx, http.MethodPost, url, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *APIClient) CaptureSnapshot(ctx context.Context, attemptID int, frame []byte, contentType string) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="snapshot"; filename="snapshot.jpg"`)
	if contentType == "" {
		contentType = "image/jpeg"
	}
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return err
	}
	if _, err := part.Write(frame); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	url := fmt.Sprintf("%s/api/assessment/capture-snapshot/%d", c.baseURL, attemptID)
	_, err = c.do(ctx, http.MethodPost, url, w.FormDataContentType(), &buf)
	return err
}

func (c *APIClient) End(ctx context.Context, attemptID int, data *model.ClientProctoringData) error {
	url := fmt.Sprintf("%s/api/assessment/end/%d", c.baseURL, attemptID)
	return c.doJSON(ctx, http.MethodPost, url, &model.EndAssessmentRequest{ProctoringData: *data}, nil)
}

func (c *APIClient) doJSON(ctx context.Context, method, url string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	raw, err := c.do(ctx, method, url, "application/json", body)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *APIClient) do(ctx context.Context, method, url, contentType string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" && body != nil {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		var flat struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(raw, &flat); err == nil && flat.Error != "" {
			return nil, fmt.Errorf("%s", flat.Error)
		}
		return nil, fmt.Errorf("HTTP error %d", resp.StatusCode)
	}
	return raw, nil
}
