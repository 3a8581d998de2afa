package service

import (
	"context"
	"strings"

	"github.com/xxxsen/common/logutil"

	"github.com/xxxsen/bookqa/internal/contentstore"
)

const groundingWordBudget = 100

// GroundingValidator checks that an answer's vocabulary overlaps with its
// cited sources. This is a coarse lexical heuristic, not semantic
// entailment: any shared word satisfies it, so it is intentionally
// permissive, and it fails closed when no source resolves.
type GroundingValidator struct {
	content *contentstore.Store
}

func NewGroundingValidator(content *contentstore.Store) *GroundingValidator {
	return &GroundingValidator{content: content}
}

func (v *GroundingValidator) IsGrounded(ctx context.Context, answer string, sourceIDs []string) bool {
	var bodies []string
	for _, id := range sourceIDs {
		if chunk, ok := v.content.Get(ctx, id); ok {
			bodies = append(bodies, strings.ToLower(chunk.Body))
		}
	}
	if len(bodies) == 0 {
		return false
	}

	sourceWords := strings.Fields(strings.Join(bodies, " "))
	if len(sourceWords) > groundingWordBudget {
		sourceWords = sourceWords[:groundingWordBudget]
	}
	sourceSet := make(map[string]struct{}, len(sourceWords))
	for _, word := range sourceWords {
		sourceSet[word] = struct{}{}
	}

	for _, word := range strings.Fields(strings.ToLower(answer)) {
		if _, ok := sourceSet[word]; ok {
			return true
		}
	}
	logutil.GetLogger(ctx).Warn("answer does not appear to be grounded in provided sources")
	return false
}
