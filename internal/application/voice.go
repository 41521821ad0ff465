package application

import (
	"context"
	"strings"

	"github.com/ericfisherdev/chill/internal/domain/model"
)

// SubmitVoice records a voice note held under audioRef and replies with the
// fixed acknowledgement after the configured voice delay. It shares the
// per-account gate with Submit.
func (s *ConversationService) SubmitVoice(ctx context.Context, sess *Session, audioRef string) (model.Transcript, error) {
	if strings.TrimSpace(audioRef) == "" {
		return model.Transcript{}, ErrInvalidInput
	}
	if !sess.Active() {
		return model.Transcript{}, ErrNotLoggedIn
	}

	s.metrics.RecordVoiceNote()
	userTurn := model.Turn{
		Author:   model.AuthorUser,
		Text:     model.VoiceNotePlaceholder,
		AudioRef: audioRef,
	}
	return s.exchange(ctx, sess.Identifier(), userTurn, s.voiceDelay, func() string {
		return model.VoiceNoteAcknowledgement
	})
}
