package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/schemalens/schemalens/internal/errs"
)

const defaultEmbedTimeout = 30 * time.Second

// Ollama is a Provider backed by a local Ollama server's /api/embed endpoint.
type Ollama struct {
	host   string
	model  string
	client *http.Client
}

// NewOllama creates an Ollama embedding provider. It does not probe the
// server — the first Embed call surfaces connectivity problems, which the
// pipeline treats as a recoverable per-generator failure.
func NewOllama(host, model string, timeout time.Duration) *Ollama {
	if timeout <= 0 {
		timeout = defaultEmbedTimeout
	}
	return &Ollama{
		host:   host,
		model:  model,
		client: &http.Client{Timeout: timeout},
	}
}

func (o *Ollama) Name() string { return "ollama/" + o.model }

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
}

// Embed sends all texts in a single request and returns their vectors.
func (o *Ollama) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	body, err := json.Marshal(embedRequest{Model: o.model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("encode embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.host+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindUnavailable, "embedding service unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errs.New(errs.ErrKindUnavailable,
			fmt.Sprintf("embedding service returned status %d", resp.StatusCode))
	}

	var parsed embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, errs.Wrap(errs.ErrKindQueryFailed, "decode embed response", err)
	}

	if len(parsed.Embeddings) != len(texts) {
		return nil, errs.New(errs.ErrKindQueryFailed,
			fmt.Sprintf("embedding count mismatch: sent %d texts, got %d vectors",
				len(texts), len(parsed.Embeddings)))
	}
	return parsed.Embeddings, nil
}
