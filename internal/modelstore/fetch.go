package modelstore

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"mlxd/internal/engine"
)

// Fetcher resolves a model identifier into local artifacts when the cache
// misses.
type Fetcher interface {
	Fetch(ctx context.Context, model string) error
}

// Files required for a usable download; the fetch fails when any is missing.
var requiredFetchFiles = []string{
	"config.json",
	"tokenizer.json",
	"tokenizer_config.json",
}

// Files fetched opportunistically; absence is tolerated.
var optionalFetchFiles = []string{
	"model.safetensors",
	"weights.npz",
	"special_tokens_map.json",
	"generation_config.json",
}

// HubFetcher downloads model artifacts from a HuggingFace-style hub.
type HubFetcher struct {
	store   *Store
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// NewHubFetcher builds a fetcher writing into store. baseURL defaults to the
// public HuggingFace hub.
func NewHubFetcher(store *Store, baseURL string, log zerolog.Logger) *HubFetcher {
	if baseURL == "" {
		baseURL = "https://huggingface.co"
	}
	return &HubFetcher{
		store:   store,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Minute},
		log:     log,
	}
}

// Fetch downloads the model's artifacts into the cache. A partial download
// is removed so a failed fetch never leaves a half-valid cache entry behind.
func (f *HubFetcher) Fetch(ctx context.Context, model string) error {
	dir := f.store.Path(model)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create model directory: %w", err)
	}

	cleanup := true
	defer func() {
		if cleanup {
			os.RemoveAll(dir)
		}
	}()

	all := append(append([]string{}, requiredFetchFiles...), optionalFetchFiles...)
	for _, name := range all {
		if err := ctx.Err(); err != nil {
			return err
		}
		url := fmt.Sprintf("%s/%s/resolve/main/%s", f.baseURL, model, name)
		dest := filepath.Join(dir, name)
		f.log.Debug().Str("model", model).Str("file", name).Msg("fetching artifact")
		if err := f.downloadFile(ctx, url, dest); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if isRequired(name) {
				return fmt.Errorf("fetch required file %s: %w", name, classifyFetch(err))
			}
			continue
		}
	}

	if !f.store.Exists(model) {
		return fmt.Errorf("fetched %s but no weight artifact found: %w", model, engine.ErrNotFound)
	}
	cleanup = false
	return nil
}

func isRequired(name string) bool {
	for _, r := range requiredFetchFiles {
		if r == name {
			return true
		}
	}
	return false
}

// classifyFetch wraps HTTP failures with the typed sentinels so the load
// classifier does not fall back to substring matching.
func classifyFetch(err error) error {
	if err == nil {
		return nil
	}
	if fe, ok := err.(*fetchStatusError); ok {
		if fe.status == http.StatusNotFound {
			return fmt.Errorf("%v: %w", err, engine.ErrNotFound)
		}
		return err
	}
	return fmt.Errorf("%v: %w", err, engine.ErrNetwork)
}

type fetchStatusError struct {
	url    string
	status int
}

func (e *fetchStatusError) Error() string {
	return fmt.Sprintf("fetch %s: status %d", e.url, e.status)
}

// downloadFile streams url into destPath via a .part rename so readers never
// see a truncated artifact.
func (f *HubFetcher) downloadFile(ctx context.Context, url, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return &fetchStatusError{url: url, status: resp.StatusCode}
	}

	tmp := destPath + ".part"
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, destPath)
}
