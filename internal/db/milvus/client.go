package milvus

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/OpenPecha/openpecha-search/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// Config holds connection parameters for a Milvus store.
type Config struct {
	// URI is the base URL of the Milvus RESTful v2 endpoint.
	URI   string
	Token string
	// RequestTimeout bounds a single HTTP call. Zero means 30s.
	RequestTimeout time.Duration
}

// Store implements db.Store over the Milvus RESTful v2 API.
type Store struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewStore creates a Milvus store client.
func NewStore(cfg Config) (*Store, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("uri is required")
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Store{
		baseURL: strings.TrimRight(cfg.URI, "/"),
		token:   cfg.Token,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

// Ping checks connectivity by listing collections.
func (s *Store) Ping(ctx context.Context) error {
	if _, err := s.post(ctx, db.OpListColls, struct{}{}); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close releases idle connections.
func (s *Store) Close() {
	s.client.CloseIdleConnections()
}

// WaitForReady polls Ping until the store responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for store: %w", ctx.Err())
		case <-ticker.C:
			if err := s.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

// envelope is the Milvus RESTful v2 response wrapper. Data is left raw:
// its shape depends on the endpoint.
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// post issues a JSON POST to /v2/vectordb/<op> and unwraps the envelope.
func (s *Store) post(ctx context.Context, op string, body any) (json.RawMessage, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &db.Error{Op: op, Err: fmt.Errorf("marshal request: %w", err)}
	}

	url := s.baseURL + "/v2/vectordb/" + op
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, &db.Error{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &db.Error{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &db.Error{Op: op, Err: fmt.Errorf("read response: %w", err)}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, &db.Error{Op: op, Err: fmt.Errorf("http %d: %s", resp.StatusCode, truncate(raw))}
		}
		return nil, &db.Error{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}

	if env.Code != 0 {
		return nil, &db.Error{Op: op, Err: fmt.Errorf("server code %d: %s", env.Code, env.Message)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &db.Error{Op: op, Err: fmt.Errorf("http %d: %s", resp.StatusCode, env.Message)}
	}

	return env.Data, nil
}

func truncate(b []byte) string {
	const maxLen = 256
	if len(b) > maxLen {
		return string(b[:maxLen]) + "..."
	}
	return string(b)
}
