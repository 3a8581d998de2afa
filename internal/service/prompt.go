package service

import (
	"fmt"
	"strings"

	"github.com/xxxsen/bookqa/internal/model"
)

const promptExcerptLen = 500

// BuildPrompt formats retrieved chunks and the question into the single
// prompt handed to the answer generator. Pure formatting; missing fields
// simply render empty.
func BuildPrompt(chunks []model.ContentChunk, question string) string {
	parts := make([]string, 0, len(chunks)*4+3)
	parts = append(parts, fmt.Sprintf("The following are excerpts from the course materials that may help answer the question: '%s'\n", question))
	for i, chunk := range chunks {
		parts = append(parts, fmt.Sprintf("\nExcerpt %d (Module: %s, Chapter: %s):", i+1, chunk.Module, chunk.Chapter))
		parts = append(parts, fmt.Sprintf("Title: %s", chunk.Title))
		parts = append(parts, fmt.Sprintf("Content: %s...", truncate(chunk.Body, promptExcerptLen)))
		parts = append(parts, "---")
	}
	parts = append(parts, fmt.Sprintf("\nQuestion: %s", question))
	parts = append(parts, "Answer based ONLY on the course materials provided above, and cite which module/chapter the information comes from:")
	return strings.Join(parts, "\n")
}

// truncate hard-cuts at n bytes; a dangling word is acceptable.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
