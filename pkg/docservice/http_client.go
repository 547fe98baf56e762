package docservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/andrew/doc-chat/pkg/models"
	"go.uber.org/zap"
)

var _ Client = (*HTTPClient)(nil)

// HTTPClient talks to the document service over HTTP.
// It keeps no document or session state between calls.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewHTTPClient creates a client for the service at baseURL
func NewHTTPClient(baseURL string, timeout time.Duration, logger *zap.Logger) *HTTPClient {
	if baseURL == "" {
		baseURL = DefaultConfig().BaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &HTTPClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger.Named("docservice"),
	}
}

// UploadDocument sends doc as the multipart field "file" to /upload
func (c *HTTPClient) UploadDocument(ctx context.Context, doc models.DocumentFile) (*UploadAck, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", doc.Name)
	if err != nil {
		return nil, &UploadError{Message: err.Error(), Err: err}
	}
	if _, err := part.Write(doc.Data); err != nil {
		return nil, &UploadError{Message: err.Error(), Err: err}
	}
	if err := writer.Close(); err != nil {
		return nil, &UploadError{Message: err.Error(), Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", &body)
	if err != nil {
		return nil, &UploadError{Message: err.Error(), Err: err}
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	status, respBody, err := c.do(httpReq)
	if err != nil {
		return nil, &UploadError{Message: err.Error(), Err: err}
	}

	if status < 200 || status > 299 {
		var failure errorBody
		if err := json.Unmarshal(respBody, &failure); err != nil {
			err = fmt.Errorf("failed to parse error response (status %d): %w", status, err)
			return nil, &UploadError{Message: err.Error(), StatusCode: status, Err: err}
		}
		return nil, &UploadError{Message: failure.message(uploadFallback), StatusCode: status}
	}

	var ack UploadAck
	if err := json.Unmarshal(respBody, &ack); err != nil {
		err = fmt.Errorf("failed to parse upload response: %w", err)
		return nil, &UploadError{Message: err.Error(), StatusCode: status, Err: err}
	}

	c.logger.Info("document uploaded",
		zap.String("file", doc.Name),
		zap.Int("bytes", len(doc.Data)),
		zap.String("status", ack.Status))
	return &ack, nil
}

// QueryDocument asks the service about the current document. The text is
// sent as the "query" URL parameter; the request has no body.
func (c *HTTPClient) QueryDocument(ctx context.Context, sc SessionContext, text string) (*QueryResponse, error) {
	params := url.Values{}
	params.Set("query", text)
	if sc.ID != "" {
		params.Set("session_id", sc.ID)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/query?"+params.Encode(), nil)
	if err != nil {
		return nil, &QueryError{Message: err.Error(), Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	status, respBody, err := c.do(httpReq)
	if err != nil {
		return nil, &QueryError{Message: err.Error(), Err: err}
	}

	if status < 200 || status > 299 {
		var failure errorBody
		if err := json.Unmarshal(respBody, &failure); err != nil {
			err = fmt.Errorf("failed to parse error response (status %d): %w", status, err)
			return nil, &QueryError{Message: err.Error(), StatusCode: status, Err: err}
		}
		return nil, &QueryError{Message: failure.message(queryFallback), StatusCode: status}
	}

	var resp QueryResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		err = fmt.Errorf("failed to parse query response: %w", err)
		return nil, &QueryError{Message: err.Error(), StatusCode: status, Err: err}
	}

	c.logger.Debug("query answered",
		zap.String("kind", resp.Results.Kind.String()),
		zap.Int("results", len(resp.Results.Items)))
	return &resp, nil
}

// Health checks that the service root answers with a success status
func (c *HTTPClient) Health(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	status, _, err := c.do(httpReq)
	if err != nil {
		return err
	}
	if status < 200 || status > 299 {
		return fmt.Errorf("document service unhealthy (status %d)", status)
	}
	return nil
}

// do sends the request and reads the whole response body
func (c *HTTPClient) do(req *http.Request) (int, []byte, error) {
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("request failed",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.Error(err))
		return 0, nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug("request completed",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))
	return resp.StatusCode, body, nil
}
