package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
)

// HTTPAdapter implements URIAdapter against a remote container store over
// HTTP: Load issues a GET, Save issues a PUT with the body as the full
// envelope.
type HTTPAdapter struct {
	Client *http.Client
}

// NewHTTPAdapter returns an HTTPAdapter using client, or http.DefaultClient
// if client is nil.
func NewHTTPAdapter(client *http.Client) *HTTPAdapter {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPAdapter{Client: client}
}

func (h *HTTPAdapter) Load(ctx context.Context, uri string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, err
	}
	resp, err := h.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("storage: http load %s: status %d", uri, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (h *HTTPAdapter) Save(ctx context.Context, uri string, data []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uri, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	resp, err := h.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("storage: http save %s: status %d", uri, resp.StatusCode)
	}
	return nil
}
