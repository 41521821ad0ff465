package model

import "time"

// Turn is one message in a conversation. Turns are immutable once appended.
type Turn struct {
	ID        string
	Author    Author
	Text      string
	AudioRef  string // Opaque audio handle; empty for text turns.
	CreatedAt time.Time
}

// HasAudio reports whether the turn carries a voice note.
func (t Turn) HasAudio() bool {
	return t.AudioRef != ""
}

// Transcript is the ordered history of turns for one account. Turns are in
// append order, which is also display and chronological order.
type Transcript struct {
	Identifier string
	Turns      []Turn
}

// Len returns the number of turns.
func (t Transcript) Len() int {
	return len(t.Turns)
}

// Last returns the most recent turn, or false for an empty transcript.
func (t Transcript) Last() (Turn, bool) {
	if len(t.Turns) == 0 {
		return Turn{}, false
	}
	return t.Turns[len(t.Turns)-1], true
}
