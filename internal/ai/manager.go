package ai

import (
	"context"
	"fmt"
	"strings"
	"time"
)

type ManagerConfig struct {
	ChatModel  string
	EmbedModel string
	EmbedDims  int
	// Timeout bounds every provider call, in seconds. Provider calls are
	// plain network I/O and must never hang a request or a batch run.
	Timeout int
}

// Manager is the single entry point to the external AI service. It is built
// explicitly at startup and handed to the services that need it; there is no
// package-level client state.
type Manager struct {
	generator IProvider
	embedder  IEmbedProvider
	cfg       ManagerConfig
}

func NewManager(generator IProvider, embedder IEmbedProvider, cfg ManagerConfig) *Manager {
	return &Manager{
		generator: generator,
		embedder:  embedder,
		cfg:       cfg,
	}
}

func (m *Manager) Generate(ctx context.Context, prompt string) (string, error) {
	if m.generator == nil {
		return "", ErrUnavailable
	}
	ctx, cancel := m.callContext(ctx)
	defer cancel()
	resp, err := m.generator.Generate(ctx, m.cfg.ChatModel, prompt)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp)
	if text == "" {
		return "", fmt.Errorf("empty ai response")
	}
	return text, nil
}

// EmbedBatch embeds every text in one provider call and checks each returned
// vector against the configured dimensionality, so a misconfigured model can
// never store vectors of the wrong length.
func (m *Manager) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if m.embedder == nil {
		return nil, ErrUnavailable
	}
	if len(texts) == 0 {
		return nil, nil
	}
	ctx, cancel := m.callContext(ctx)
	defer cancel()
	vectors, err := m.embedder.Embed(ctx, m.cfg.EmbedModel, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(texts))
	}
	for i, vec := range vectors {
		if len(vec) != m.cfg.EmbedDims {
			return nil, fmt.Errorf("embedder returned vector %d with %d dims, want %d", i, len(vec), m.cfg.EmbedDims)
		}
	}
	return vectors, nil
}

func (m *Manager) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := m.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (m *Manager) EmbeddingModelName() string {
	return m.cfg.EmbedModel
}

func (m *Manager) EmbeddingDims() int {
	return m.cfg.EmbedDims
}

func (m *Manager) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.cfg.Timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, time.Duration(m.cfg.Timeout)*time.Second)
}
