package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/bookqa/internal/contentstore"
	"github.com/xxxsen/bookqa/internal/model"
)

func newValidatorWith(chunks ...model.ContentChunk) *GroundingValidator {
	store := &fakeVectorStore{chunks: map[string]model.ContentChunk{}}
	for _, chunk := range chunks {
		store.chunks[chunk.ID] = chunk
	}
	content := contentstore.New(store, 64, time.Minute)
	return NewGroundingValidator(content)
}

func TestIsGrounded_SharedVocabulary(t *testing.T) {
	validator := newValidatorWith(model.ContentChunk{
		ID:   "src",
		Body: "ROS 2 is the Robot Operating System version 2, a middleware for robots.",
	})

	grounded := validator.IsGrounded(context.Background(),
		"ROS 2 is a robot operating system middleware.", []string{"src"})
	require.True(t, grounded)
}

func TestIsGrounded_UnrelatedAnswerFails(t *testing.T) {
	validator := newValidatorWith(model.ContentChunk{
		ID:   "src",
		Body: "ROS 2 is the Robot Operating System version 2, a middleware for robots.",
	})

	grounded := validator.IsGrounded(context.Background(),
		"Preheat oven, whisk eggs, fold flour gently.", []string{"src"})
	require.False(t, grounded)
}

func TestIsGrounded_NoResolvableSourcesFailsClosed(t *testing.T) {
	validator := newValidatorWith()
	grounded := validator.IsGrounded(context.Background(), "any answer at all", []string{"ghost"})
	require.False(t, grounded)
}

func TestIsGrounded_OnlyFirstHundredSourceWordsCount(t *testing.T) {
	var body string
	for i := 0; i < 100; i++ {
		body += "padding "
	}
	body += "quaternion"
	validator := newValidatorWith(model.ContentChunk{ID: "src", Body: body})

	grounded := validator.IsGrounded(context.Background(), "quaternion rotations", []string{"src"})
	require.False(t, grounded, "words past the first 100 source words must not count")
}
