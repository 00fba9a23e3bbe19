package identity

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"lading/pkg/platform/sentinel"
)

// BridgeClient talks to a wallet bridge daemon over its local HTTP API. The
// bridge holds the actual wallet session; this process never sees key
// material, only signed transaction bytes.
type BridgeClient struct {
	baseURL string
	http    *http.Client
}

// NewBridgeClient constructs a client for the given bridge endpoint, e.g.
// "http://localhost:9340".
func NewBridgeClient(baseURL string) *BridgeClient {
	return &BridgeClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 2 * time.Minute},
	}
}

type bridgeConnectResponse struct {
	Address string `json:"address"`
}

// Connect asks the bridge for its active account address. The bridge blocks
// until the user approves or rejects in the wallet UI.
func (c *BridgeClient) Connect(ctx context.Context) (string, error) {
	var resp bridgeConnectResponse
	if err := c.post(ctx, "/v1/connect", nil, &resp); err != nil {
		return "", err
	}
	return resp.Address, nil
}

// Disconnect ends the bridge's wallet session.
func (c *BridgeClient) Disconnect(ctx context.Context) error {
	return c.post(ctx, "/v1/disconnect", nil, nil)
}

type bridgeSignRequest struct {
	// Txns are base64 msgpack-encoded unsigned transactions, the whole
	// group in order.
	Txns []string `json:"txns"`
	// Indices selects which entries this wallet must sign. Empty means all.
	Indices []int `json:"indices,omitempty"`
}

type bridgeSignResponse struct {
	// Signed is aligned with the request; entries the wallet did not sign
	// are empty strings.
	Signed []string `json:"signed"`
}

// SignTransactions submits the group to the wallet for approval and returns
// the signed bytes aligned with the input.
func (c *BridgeClient) SignTransactions(ctx context.Context, txns [][]byte, indices []int) ([][]byte, error) {
	req := bridgeSignRequest{Txns: make([]string, len(txns)), Indices: indices}
	for i, txn := range txns {
		req.Txns[i] = base64.StdEncoding.EncodeToString(txn)
	}

	var resp bridgeSignResponse
	if err := c.post(ctx, "/v1/sign", req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Signed) != len(txns) {
		return nil, fmt.Errorf("bridge returned %d entries for %d transactions", len(resp.Signed), len(txns))
	}

	signed := make([][]byte, len(resp.Signed))
	for i, entry := range resp.Signed {
		if entry == "" {
			continue
		}
		raw, err := base64.StdEncoding.DecodeString(entry)
		if err != nil {
			return nil, fmt.Errorf("decode signed transaction %d: %w", i, err)
		}
		signed[i] = raw
	}
	return signed, nil
}

func (c *BridgeClient) post(ctx context.Context, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode bridge request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("wallet bridge %s: %v: %w", path, err, sentinel.ErrUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("wallet bridge %s: rejected in wallet: %w", path, sentinel.ErrInvalidState)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("wallet bridge %s: status %d: %w", path, resp.StatusCode, sentinel.ErrUnavailable)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode bridge response: %w", err)
		}
	}
	return nil
}
