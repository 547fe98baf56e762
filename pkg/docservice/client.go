package docservice

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/andrew/doc-chat/pkg/models"
	"go.uber.org/zap"
)

// Client is the interface for talking to the document question-answering service
type Client interface {
	UploadDocument(ctx context.Context, doc models.DocumentFile) (*UploadAck, error)
	QueryDocument(ctx context.Context, sc SessionContext, text string) (*QueryResponse, error)
}

// SessionContext carries conversation continuity between calls.
// The zero value means no session has been established.
type SessionContext struct {
	ID string
}

// Config holds connection settings for the document service
type Config struct {
	BaseURL string
	// Timeout bounds a whole round trip at the transport level. Zero means no limit.
	Timeout time.Duration
}

// DefaultConfig returns the settings of a locally running service
func DefaultConfig() Config {
	return Config{
		BaseURL: "http://127.0.0.1:8000",
		Timeout: 5 * time.Minute,
	}
}

// NewClient creates an HTTP client after validating the configuration
func NewClient(cfg Config, logger *zap.Logger) (*HTTPClient, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultConfig().BaseURL
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid service URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid service URL %q: scheme must be http or https", cfg.BaseURL)
	}
	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("invalid timeout %s", cfg.Timeout)
	}

	return NewHTTPClient(strings.TrimRight(cfg.BaseURL, "/"), cfg.Timeout, logger), nil
}
