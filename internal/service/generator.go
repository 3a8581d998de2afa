package service

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/bookqa/internal/ai"
)

// AnswerSystemInstruction pins the remote model to the provided materials.
const AnswerSystemInstruction = "You are an assistant for the course. " +
	"Answer questions based only on the provided course materials. " +
	"If you can't find relevant information in the provided context, say so."

const (
	extractiveNotFoundAnswer = "Based on my analysis of the course materials, I couldn't find specific information to answer your question."
	extractiveDisclaimer     = " [Note: This answer was generated using basic keyword matching against course materials]"
)

// AnswerGenerator is the strategy behind answer production: a remote
// generative model or the local keyword-extractive fallback.
type AnswerGenerator interface {
	Name() string
	Generate(ctx context.Context, prompt string, question string) (string, error)
}

type remoteGenerator struct {
	gen     ai.IGenerator
	timeout time.Duration
}

func NewRemoteGenerator(gen ai.IGenerator, timeout time.Duration) AnswerGenerator {
	if gen == nil {
		return nil
	}
	return &remoteGenerator{gen: gen, timeout: timeout}
}

func (g *remoteGenerator) Name() string {
	return "remote"
}

func (g *remoteGenerator) Generate(ctx context.Context, prompt string, question string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	answer, err := g.gen.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", fmt.Errorf("empty model response")
	}
	return answer, nil
}

var (
	keywordPattern  = regexp.MustCompile(`\b\w{4,}\b`)
	sentencePattern = regexp.MustCompile(`[.!?]+`)
)

type extractiveGenerator struct{}

func NewExtractiveGenerator() AnswerGenerator {
	return extractiveGenerator{}
}

func (extractiveGenerator) Name() string {
	return "extractive"
}

// Generate scores the prompt's sentences by keyword overlap with the
// question and stitches the best three into an answer. The disclaimer is
// always appended so callers can tell the answer's provenance.
func (extractiveGenerator) Generate(_ context.Context, prompt string, question string) (string, error) {
	keywords := wordSet(question)

	type scored struct {
		sentence string
		score    int
	}
	var sentences []scored
	for _, sentence := range sentencePattern.Split(prompt, -1) {
		trimmed := strings.TrimSpace(sentence)
		if trimmed == "" {
			continue
		}
		overlap := 0
		for word := range wordSet(trimmed) {
			if _, ok := keywords[word]; ok {
				overlap++
			}
		}
		sentences = append(sentences, scored{sentence: trimmed, score: overlap})
	}
	sort.SliceStable(sentences, func(i, j int) bool {
		return sentences[i].score > sentences[j].score
	})

	var top []string
	for _, item := range sentences {
		if item.score <= 0 || len(top) >= 3 {
			break
		}
		top = append(top, item.sentence)
	}

	answer := strings.TrimSpace(strings.Join(top, ". "))
	if answer == "" {
		answer = extractiveNotFoundAnswer
	}
	return answer + extractiveDisclaimer, nil
}

func wordSet(text string) map[string]struct{} {
	words := keywordPattern.FindAllString(strings.ToLower(text), -1)
	set := make(map[string]struct{}, len(words))
	for _, word := range words {
		set[word] = struct{}{}
	}
	return set
}

type fallbackGenerator struct {
	primary   AnswerGenerator
	secondary AnswerGenerator
}

// NewFallbackGenerator composes try-primary-else-secondary explicitly. A
// nil primary collapses to the secondary alone.
func NewFallbackGenerator(primary, secondary AnswerGenerator) AnswerGenerator {
	if primary == nil {
		return secondary
	}
	return &fallbackGenerator{primary: primary, secondary: secondary}
}

func (g *fallbackGenerator) Name() string {
	return g.primary.Name() + "+" + g.secondary.Name()
}

func (g *fallbackGenerator) Generate(ctx context.Context, prompt string, question string) (string, error) {
	answer, err := g.primary.Generate(ctx, prompt, question)
	if err == nil {
		return answer, nil
	}
	logutil.GetLogger(ctx).Warn("primary answer generator failed, falling back",
		zap.String("primary", g.primary.Name()),
		zap.String("secondary", g.secondary.Name()),
		zap.Error(err),
	)
	return g.secondary.Generate(ctx, prompt, question)
}
