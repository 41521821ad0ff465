package application

import (
	"context"
	"fmt"

	"github.com/ericfisherdev/chill/internal/domain/model"
	"github.com/ericfisherdev/chill/internal/domain/port/driven"
)

// HistoryService exposes per-account transcripts on top of a TranscriptStore.
type HistoryService struct {
	store driven.TranscriptStore
}

// NewHistoryService creates a HistoryService.
func NewHistoryService(store driven.TranscriptStore) *HistoryService {
	return &HistoryService{store: store}
}

// Load returns the transcript for identifier. An account with no turns is
// seeded with the welcome message, which is persisted before returning.
func (s *HistoryService) Load(ctx context.Context, identifier string) (model.Transcript, error) {
	turns, err := s.store.LoadOrSeed(ctx, identifier, welcomeTurn())
	if err != nil {
		return model.Transcript{}, fmt.Errorf("load history for %q: %w", identifier, err)
	}
	return model.Transcript{Identifier: identifier, Turns: turns}, nil
}

// Append adds turn at the tail and returns the resulting transcript.
func (s *HistoryService) Append(ctx context.Context, identifier string, turn model.Turn) (model.Transcript, error) {
	turns, err := s.store.Append(ctx, identifier, turn)
	if err != nil {
		return model.Transcript{}, fmt.Errorf("append %s turn for %q: %w", turn.Author, identifier, err)
	}
	return model.Transcript{Identifier: identifier, Turns: turns}, nil
}

// Clear removes every turn for identifier. The next Load re-seeds the
// welcome message. Logout never calls this.
func (s *HistoryService) Clear(ctx context.Context, identifier string) error {
	if err := s.store.Clear(ctx, identifier); err != nil {
		return fmt.Errorf("clear history for %q: %w", identifier, err)
	}
	return nil
}

func welcomeTurn() model.Turn {
	return model.Turn{Author: model.AuthorAssistant, Text: model.WelcomeMessage}
}
