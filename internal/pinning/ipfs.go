package pinning

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"lading/pkg/platform/sentinel"
)

// IPFSClient talks to an IPFS node's HTTP API (kubo /api/v0). An API token is
// optional and sent as a bearer header for hosted gateways.
type IPFSClient struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *slog.Logger
}

// NewIPFSClient constructs a client for the given API endpoint, e.g.
// "http://localhost:5001".
func NewIPFSClient(baseURL, token string, logger *slog.Logger) *IPFSClient {
	return &IPFSClient{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  logger,
	}
}

type addResponse struct {
	Name string `json:"Name"`
	Hash string `json:"Hash"`
}

func (c *IPFSClient) Store(ctx context.Context, data []byte, contentType string, meta map[string]string) (string, error) {
	name := meta["name"]
	if name == "" {
		name = "payload"
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", name)
	if err != nil {
		return "", fmt.Errorf("build multipart: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("write multipart: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close multipart: %w", err)
	}

	resp, err := c.do(ctx, "/api/v0/add?pin=true", writer.FormDataContentType(), &body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var added addResponse
	if err := json.NewDecoder(resp.Body).Decode(&added); err != nil {
		return "", fmt.Errorf("decode add response: %w", err)
	}
	if !ValidCID(added.Hash) {
		return "", fmt.Errorf("backend returned malformed cid %q", added.Hash)
	}
	c.logger.DebugContext(ctx, "content stored", "cid", added.Hash, "bytes", len(data), "content_type", contentType)
	return added.Hash, nil
}

func (c *IPFSClient) Fetch(ctx context.Context, cid string) ([]byte, error) {
	if !ValidCID(cid) {
		return nil, fmt.Errorf("malformed content address %q: %w", cid, sentinel.ErrNotFound)
	}
	resp, err := c.do(ctx, "/api/v0/cat?arg="+url.QueryEscape(cid), "", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read content %s: %w", cid, err)
	}
	return data, nil
}

func (c *IPFSClient) Pin(ctx context.Context, cid string) error {
	if !ValidCID(cid) {
		return fmt.Errorf("malformed content address %q: %w", cid, sentinel.ErrNotFound)
	}
	resp, err := c.do(ctx, "/api/v0/pin/add?arg="+url.QueryEscape(cid), "", nil)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func (c *IPFSClient) do(ctx context.Context, path, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ipfs api %s: %v: %w", path, err, sentinel.ErrUnavailable)
	}
	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return nil, fmt.Errorf("ipfs api %s: %w", path, sentinel.ErrNotFound)
	}
	if resp.StatusCode >= 400 {
		resp.Body.Close()
		return nil, fmt.Errorf("ipfs api %s: status %d: %w", path, resp.StatusCode, sentinel.ErrUnavailable)
	}
	return resp, nil
}
