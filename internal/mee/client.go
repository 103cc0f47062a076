package mee

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/supertx-labs/supertx-cli/internal/httpx"
	"github.com/supertx-labs/supertx-cli/internal/registry"
)

// Config carries everything a Client needs; there is no package-level state.
type Config struct {
	BaseURL     string
	ExplorerURL string
	APIKey      string
	Timeout     time.Duration
	ReadRetries int
}

// Client talks to the modular execution environment. Quote and execute calls
// never retry at the transport layer (rejections must reach the funding-retry
// controller unmodified); read-only calls (status, orchestrator) may.
type Client struct {
	writeHTTP   *httpx.Client
	readHTTP    *httpx.Client
	baseURL     string
	explorerURL string
	apiKey      string
	log         *zap.Logger
}

func NewClient(cfg Config, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = registry.DefaultMEEBaseURL
	}
	explorerURL := strings.TrimRight(cfg.ExplorerURL, "/")
	if explorerURL == "" {
		explorerURL = registry.DefaultExplorerBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		writeHTTP:   httpx.New(timeout, 0),
		readHTTP:    httpx.New(timeout, cfg.ReadRetries),
		baseURL:     baseURL,
		explorerURL: explorerURL,
		apiKey:      cfg.APIKey,
		log:         log,
	}
}

func (c *Client) headers() map[string]string {
	if strings.TrimSpace(c.apiKey) == "" {
		return nil
	}
	return map[string]string{"X-API-Key": c.apiKey}
}
