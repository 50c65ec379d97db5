package modelstore

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"mlxd/internal/engine"
)

// seedModel writes a minimal valid cache entry for name.
func seedModel(t *testing.T, root, name, manifest string) {
	t.Helper()
	dir := filepath.Join(root, LocalName(name))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(manifest), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "model.safetensors"), []byte("weights"), 0o644); err != nil {
		t.Fatalf("write weights: %v", err)
	}
}

func TestLocalName(t *testing.T) {
	if got := LocalName("mlx-community/Llama-3.2-3B-Instruct-4bit"); got != "mlx-community_Llama-3.2-3B-Instruct-4bit" {
		t.Fatalf("got %q", got)
	}
	if got := LocalName("plain-model"); got != "plain-model" {
		t.Fatalf("got %q", got)
	}
}

func TestExistsRequiresManifestAndWeights(t *testing.T) {
	root := t.TempDir()
	s, err := New(root)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if s.Exists("missing") {
		t.Fatal("expected missing model to not exist")
	}

	// Manifest without weights is not a valid entry.
	dir := filepath.Join(root, "half")
	os.MkdirAll(dir, 0o755)
	os.WriteFile(filepath.Join(dir, "config.json"), []byte("{}"), 0o644)
	if s.Exists("half") {
		t.Fatal("manifest without weights must not count as cached")
	}

	seedModel(t, root, "org/full", `{"architectures":["LlamaForCausalLM"]}`)
	if !s.Exists("org/full") {
		t.Fatal("expected seeded model to exist")
	}
}

func TestExistsAcceptsNPZWeights(t *testing.T) {
	root := t.TempDir()
	s, _ := New(root)
	dir := filepath.Join(root, "npz-model")
	os.MkdirAll(dir, 0o755)
	os.WriteFile(filepath.Join(dir, "config.json"), []byte("{}"), 0o644)
	os.WriteFile(filepath.Join(dir, "weights.npz"), []byte("w"), 0o644)
	if !s.Exists("npz-model") {
		t.Fatal("weights.npz should satisfy the artifact check")
	}
}

func TestInfoReadsManifest(t *testing.T) {
	root := t.TempDir()
	s, _ := New(root)
	seedModel(t, root, "org/m", `{"architectures":["Qwen2ForCausalLM"],"hidden_size":2048}`)
	info, err := s.Info("org/m")
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	if info.Family != "Qwen2ForCausalLM" {
		t.Fatalf("family=%q", info.Family)
	}
	if info.Size <= 0 {
		t.Fatalf("size=%d", info.Size)
	}
	if !strings.HasPrefix(info.Digest, "sha256:") {
		t.Fatalf("digest=%q", info.Digest)
	}
}

func TestListSkipsInvalidEntries(t *testing.T) {
	root := t.TempDir()
	s, _ := New(root)
	seedModel(t, root, "good", `{}`)
	os.MkdirAll(filepath.Join(root, "empty-dir"), 0o755)
	os.WriteFile(filepath.Join(root, "stray-file"), []byte("x"), 0o644)

	models, err := s.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(models) != 1 || models[0].Name != "good" {
		t.Fatalf("models=%v", models)
	}
}

func TestListMissingRootIsEmpty(t *testing.T) {
	s, _ := New(filepath.Join(t.TempDir(), "nope"))
	models, err := s.List()
	if err != nil || models != nil {
		t.Fatalf("models=%v err=%v", models, err)
	}
}

func TestDelete(t *testing.T) {
	root := t.TempDir()
	s, _ := New(root)
	seedModel(t, root, "gone", `{}`)
	if err := s.Delete("gone"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if s.Exists("gone") {
		t.Fatal("model still exists after delete")
	}
}

func TestHubFetcherDownloads(t *testing.T) {
	files := map[string]string{
		"config.json":           `{"architectures":["LlamaForCausalLM"]}`,
		"tokenizer.json":        `{}`,
		"tokenizer_config.json": `{}`,
		"model.safetensors":     "weights",
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := filepath.Base(r.URL.Path)
		body, ok := files[name]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(body))
	}))
	defer srv.Close()

	s, _ := New(t.TempDir())
	f := NewHubFetcher(s, srv.URL, zerolog.Nop())
	if err := f.Fetch(context.Background(), "org/model"); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !s.Exists("org/model") {
		t.Fatal("fetched model not visible in store")
	}
	if _, err := os.Stat(filepath.Join(s.Path("org/model"), "generation_config.json")); err == nil {
		t.Fatal("optional miss should not create a file")
	}
}

func TestHubFetcherMissingRequiredFileIsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	s, _ := New(t.TempDir())
	f := NewHubFetcher(s, srv.URL, zerolog.Nop())
	err := f.Fetch(context.Background(), "org/absent")
	if err == nil {
		t.Fatal("expected fetch error")
	}
	if !errors.Is(err, engine.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if s.Exists("org/absent") {
		t.Fatal("failed fetch left a cache entry behind")
	}
}

func TestHubFetcherNoWeightsCleansUp(t *testing.T) {
	// Required files resolve but no weight artifact exists upstream.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := filepath.Base(r.URL.Path)
		switch name {
		case "config.json", "tokenizer.json", "tokenizer_config.json":
			w.Write([]byte("{}"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	s, _ := New(t.TempDir())
	f := NewHubFetcher(s, srv.URL, zerolog.Nop())
	if err := f.Fetch(context.Background(), "org/noweights"); err == nil {
		t.Fatal("expected error when no weights fetched")
	}
	if _, err := os.Stat(s.Path("org/noweights")); !os.IsNotExist(err) {
		t.Fatal("partial download not cleaned up")
	}
}
