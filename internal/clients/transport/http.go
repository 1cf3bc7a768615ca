package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Download issues a GET and hands back the open response. Non-2xx responses
// are turned into errors carrying a bounded body snippet.
func Download(h http.Client, ctx context.Context, url string, headers map[string]string) (*http.Response, error) {

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	for key, val := range headers {
		req.Header.Add(key, val)
	}

	resp, err := h.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		_ = resp.Body.Close()
		return nil, fmt.Errorf("download failed: %s: %s", resp.Status, strings.TrimSpace(string(snippet)))
	}

	return resp, nil
}

// CopyTo streams resp into w and reports how many bytes were written.
func CopyTo(w io.Writer, resp *http.Response) (int64, error) {
	defer resp.Body.Close()
	return io.Copy(w, resp.Body)
}
