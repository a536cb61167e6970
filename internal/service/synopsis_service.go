package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"

	appErr "github.com/acentos/bookstore/internal/pkg/errors"
)

// Generator is the text-generation slice of ai.Manager.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Synopsis struct {
	Title    string `json:"title"`
	Markdown string `json:"markdown"`
	HTML     string `json:"html"`
}

// SynopsisService asks the chat model for a short synopsis plus a
// recommendation for a book title, in Spanish like the storefront.
type SynopsisService struct {
	generator Generator
	markdown  goldmark.Markdown
}

func NewSynopsisService(generator Generator) *SynopsisService {
	return &SynopsisService{
		generator: generator,
		markdown:  goldmark.New(),
	}
}

func (s *SynopsisService) ForTitle(ctx context.Context, title string) (*Synopsis, error) {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return nil, appErr.ErrInvalid
	}
	prompt := fmt.Sprintf("Dame una sinopsis breve y una recomendación para el libro titulado '%s'. Responde en español.", trimmed)
	text, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := s.markdown.Convert([]byte(text), &buf); err != nil {
		return nil, err
	}
	return &Synopsis{
		Title:    trimmed,
		Markdown: text,
		HTML:     buf.String(),
	}, nil
}
