package model

// Fixed texts shown in every conversation.
const (
	// WelcomeMessage seeds a transcript the first time it is loaded.
	WelcomeMessage = "Welcome to Chill. I'm here to listen and support you. How are you feeling today?"

	// VoiceNotePlaceholder is the display text of a user voice-note turn.
	VoiceNotePlaceholder = "[Voice Note]"

	// VoiceNoteAcknowledgement is the assistant reply to every voice note.
	VoiceNoteAcknowledgement = "Thank you for sharing that voice note with me. I'm here to listen. Would you like to tell me more about how you're feeling?"
)
