package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractiveGenerator_PicksKeywordMatchingSentences(t *testing.T) {
	gen := NewExtractiveGenerator()
	prompt := "Gazebo simulates physics. ROS 2 provides middleware for robot nodes. " +
		"Unrelated filler sentence here. The middleware layer connects robot components."

	answer, err := gen.Generate(context.Background(), prompt, "What middleware does a robot use?")
	require.NoError(t, err)
	require.Contains(t, answer, "middleware")
	require.NotContains(t, answer, "Unrelated filler")
	require.Contains(t, answer, extractiveDisclaimer)
}

func TestExtractiveGenerator_TakesAtMostThreeSentences(t *testing.T) {
	gen := NewExtractiveGenerator()
	prompt := "robot one. robot two. robot three. robot four. robot five."

	answer, err := gen.Generate(context.Background(), prompt, "tell me about a robot")
	require.NoError(t, err)
	body := strings.TrimSuffix(answer, extractiveDisclaimer)
	require.Len(t, strings.Split(body, ". "), 3)
}

func TestExtractiveGenerator_NoMatchReturnsNotFoundMessage(t *testing.T) {
	gen := NewExtractiveGenerator()
	answer, err := gen.Generate(context.Background(), "pasta recipes and olive oil", "quaternion kinematics")
	require.NoError(t, err)
	require.Contains(t, answer, "couldn't find specific information")
	require.Contains(t, answer, extractiveDisclaimer)
}

func TestExtractiveGenerator_IgnoresShortWords(t *testing.T) {
	gen := NewExtractiveGenerator()
	// "the", "is", "a" are under the 4-letter floor and must not score.
	answer, err := gen.Generate(context.Background(), "the cat is a pet.", "is the a an")
	require.NoError(t, err)
	require.Contains(t, answer, "couldn't find specific information")
}

type stubGenerator struct {
	name   string
	answer string
	err    error
	calls  int
}

func (s *stubGenerator) Name() string { return s.name }

func (s *stubGenerator) Generate(context.Context, string, string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.answer, nil
}

func TestFallbackGenerator_UsesPrimaryWhenHealthy(t *testing.T) {
	primary := &stubGenerator{name: "remote", answer: "remote answer"}
	secondary := &stubGenerator{name: "extractive", answer: "local answer"}
	gen := NewFallbackGenerator(primary, secondary)

	answer, err := gen.Generate(context.Background(), "p", "q")
	require.NoError(t, err)
	require.Equal(t, "remote answer", answer)
	require.Zero(t, secondary.calls)
}

func TestFallbackGenerator_FallsBackOnPrimaryError(t *testing.T) {
	primary := &stubGenerator{name: "remote", err: errors.New("quota exceeded")}
	secondary := &stubGenerator{name: "extractive", answer: "local answer"}
	gen := NewFallbackGenerator(primary, secondary)

	answer, err := gen.Generate(context.Background(), "p", "q")
	require.NoError(t, err)
	require.Equal(t, "local answer", answer)
	require.Equal(t, 1, primary.calls)
	require.Equal(t, 1, secondary.calls)
}

func TestFallbackGenerator_NilPrimaryCollapsesToSecondary(t *testing.T) {
	secondary := &stubGenerator{name: "extractive", answer: "local answer"}
	gen := NewFallbackGenerator(nil, secondary)
	require.Equal(t, "extractive", gen.Name())
}
