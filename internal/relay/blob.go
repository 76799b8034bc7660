package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/Talha76/Together/internal/domain"
)

// Store uploads an opaque blob and returns its retrieval link. Progress
// tracks bytes put on the wire; ctx aborts the transfer mid-flight.
func (c *Client) Store(ctx context.Context, data []byte, name string, onProgress domain.ProgressFunc) (domain.BlobLink, error) {
	body := &progressReader{r: bytes.NewReader(data), total: int64(len(data)), onProgress: onProgress}
	u := c.Base + "/blobs"
	if name != "" {
		u += "?name=" + url.QueryEscape(name)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.ContentLength = int64(len(data))

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("store blob: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return "", &httpStatusError{method: http.MethodPost, path: "/blobs", status: resp.StatusCode, text: resp.Status}
	}

	var out struct {
		Link string `json:"link"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if onProgress != nil {
		onProgress(100)
	}
	return domain.BlobLink(out.Link), nil
}

// Retrieve downloads a blob. Unknown or expired links surface as the
// terminal ErrBlobNotFound; transient transport failures come back wrapped
// and retryable at the caller's discretion.
func (c *Client) Retrieve(ctx context.Context, link domain.BlobLink, onProgress domain.ProgressFunc) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Base+"/blobs/"+url.PathEscape(link.String()), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("retrieve blob: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.ErrBlobNotFound
	}
	if resp.StatusCode/100 != 2 {
		return nil, &httpStatusError{method: http.MethodGet, path: "/blobs/" + link.String(), status: resp.StatusCode, text: resp.Status}
	}

	src := io.Reader(resp.Body)
	if resp.ContentLength > 0 {
		src = &progressReader{r: resp.Body, total: resp.ContentLength, onProgress: onProgress}
	}
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("retrieve blob: %w", err)
	}
	if onProgress != nil {
		onProgress(100)
	}
	return data, nil
}
