// Package anchor dispatches best-effort on-chain anchoring of content hashes.
// Anchoring runs after the ledger commit and never affects whether an
// ingestion is considered durable.
package anchor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Anchorer records (fileID, version, hash) with an external registry and
// returns the resulting transaction hash.
type Anchorer interface {
	Anchor(ctx context.Context, fileID, version, contentHash string) (txHash string, err error)
}

// Noop is used when no anchor endpoint is configured.
type Noop struct{}

func (Noop) Anchor(context.Context, string, string, string) (string, error) { return "", nil }

// RegistryClient anchors via an HTTP file-registry endpoint that fronts the
// chain. The registry call is opaque: one POST in, one tx hash out.
type RegistryClient struct {
	endpoint string
	client   *http.Client
}

// NewRegistryClient constructs a client for the given endpoint URL.
func NewRegistryClient(endpoint string, timeout time.Duration) *RegistryClient {
	return &RegistryClient{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

type anchorRequest struct {
	FileID      string `json:"fileId"`
	Version     string `json:"version"`
	ContentHash string `json:"contentHash"`
}

type anchorResponse struct {
	TxHash string `json:"txHash"`
}

// Anchor posts the triple to the registry and returns its tx hash.
func (c *RegistryClient) Anchor(ctx context.Context, fileID, version, contentHash string) (string, error) {
	body, err := json.Marshal(anchorRequest{FileID: fileID, Version: version, ContentHash: contentHash})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("anchor registry: status %d", resp.StatusCode)
	}
	var out anchorResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("anchor registry: decode: %w", err)
	}
	return out.TxHash, nil
}
