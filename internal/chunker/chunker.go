package chunker

import (
	"regexp"
	"strings"
)

var paragraphSep = regexp.MustCompile(`\n[ \t]*\n+`)

// Split cuts text into segments of at most maxLen characters, preferring
// paragraph boundaries and falling back to sentence boundaries only when a
// single paragraph is itself too long. Every character of the input ends up
// in some chunk; nothing is truncated. A run of text with neither paragraph
// breaks nor sentence punctuation can still produce one oversized chunk.
func Split(text string, maxLen int) []string {
	if maxLen <= 0 || len(text) <= maxLen {
		return []string{text}
	}

	var chunks []string
	var cur string
	flush := func() {
		if trimmed := strings.TrimSpace(cur); trimmed != "" {
			chunks = append(chunks, trimmed)
		}
		cur = ""
	}

	for _, para := range paragraphSep.Split(text, -1) {
		if strings.TrimSpace(para) == "" {
			continue
		}
		if len(para) > maxLen {
			flush()
			// Sentence-level packing; the residual partial sentence stays
			// in cur and seeds the next chunk instead of being dropped.
			for _, sent := range splitSentences(para) {
				candidate := joinWith(cur, " ", sent)
				if len(candidate) > maxLen && cur != "" {
					flush()
					cur = sent
					continue
				}
				cur = candidate
			}
			continue
		}
		candidate := joinWith(cur, "\n\n", para)
		if len(candidate) > maxLen && cur != "" {
			flush()
			cur = para
			continue
		}
		cur = candidate
	}
	flush()

	if len(chunks) == 0 {
		return []string{strings.TrimSpace(text)}
	}
	return chunks
}

// splitSentences breaks a paragraph on runs of sentence punctuation. The
// punctuation run stays attached to the sentence it terminates.
func splitSentences(text string) []string {
	var out []string
	start := 0
	i := 0
	for i < len(text) {
		if !isSentenceEnd(text[i]) {
			i++
			continue
		}
		for i < len(text) && isSentenceEnd(text[i]) {
			i++
		}
		if sent := strings.TrimSpace(text[start:i]); sent != "" {
			out = append(out, sent)
		}
		start = i
	}
	if tail := strings.TrimSpace(text[start:]); tail != "" {
		out = append(out, tail)
	}
	return out
}

func isSentenceEnd(c byte) bool {
	return c == '.' || c == '!' || c == '?'
}

func joinWith(cur, sep, next string) string {
	if cur == "" {
		return next
	}
	return cur + sep + next
}
