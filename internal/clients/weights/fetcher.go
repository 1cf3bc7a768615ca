package weights

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"explorer/config"
	"explorer/internal/clients/transport"
	"explorer/internal/generator"
	"explorer/utils"

	"github.com/charmbracelet/log"
)

const (
	DefaultPath = "./ffhq.pkl"
	DefaultURL  = "https://nvlabs-fi-cdn.nvidia.com/stylegan2-ada-pytorch/pretrained/ffhq.pkl"
)

// Fetcher makes sure the weights bundle exists on local disk.
type Fetcher struct {
	path       string
	url        string
	httpClient *http.Client
	log        *log.Logger
}

func NewFetcher(config config.ModelConfig) *Fetcher {
	path := strings.TrimSpace(config.WeightsPath)
	if path == "" {
		path = DefaultPath
	}
	url := strings.TrimSpace(config.WeightsUrl)
	if url == "" {
		url = DefaultURL
	}
	timeout := time.Duration(config.DownloadTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = time.Hour
	}

	return &Fetcher{
		path: path,
		url:  url,
		httpClient: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return errors.New("too many redirects")
				}
				return nil
			},
		},
		log: log.With("component", "weights"),
	}
}

func (f *Fetcher) Path() string { return f.path }

// Ensure returns the local path of the bundle, downloading it first when it
// is missing. Every failure wraps generator.ErrWeightsUnavailable.
func (f *Fetcher) Ensure(ctx context.Context) (string, error) {
	ok, err := utils.FileExists(f.path)
	if err != nil {
		return "", fmt.Errorf("%w: stat %s: %v", generator.ErrWeightsUnavailable, f.path, err)
	}
	if ok {
		f.log.Debug("weights found", "path", f.path)
		return f.path, nil
	}

	f.log.Warn("weights not found, downloading", "path", f.path, "url", f.url)
	start := time.Now()
	n, err := f.download(ctx)
	if err != nil {
		f.log.Error("download failed", "url", f.url, "err", err)
		return "", fmt.Errorf("%w: download %s: %v", generator.ErrWeightsUnavailable, f.url, err)
	}
	f.log.Info("weights downloaded", "path", f.path, "bytes", n, "dur", time.Since(start).String())
	return f.path, nil
}

func (f *Fetcher) download(ctx context.Context) (int64, error) {
	if err := utils.EnsureParentDir(f.path); err != nil {
		return 0, err
	}

	resp, err := transport.Download(*f.httpClient, ctx, f.url, nil)
	if err != nil {
		return 0, err
	}

	tmpPath := utils.PartPath(f.path)
	out, err := os.Create(tmpPath)
	if err != nil {
		_ = resp.Body.Close()
		return 0, err
	}

	n, copyErr := transport.CopyTo(out, resp)
	closeErr := out.Close()

	if copyErr != nil {
		_ = os.Remove(tmpPath)
		return 0, copyErr
	}
	if closeErr != nil {
		_ = os.Remove(tmpPath)
		return 0, closeErr
	}

	if err := os.Rename(tmpPath, f.path); err != nil {
		_ = os.Remove(tmpPath)
		return 0, err
	}
	return n, nil
}
