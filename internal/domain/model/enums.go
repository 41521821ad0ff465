package model

// Author identifies who wrote a turn.
type Author string

const (
	AuthorUser      Author = "user"
	AuthorAssistant Author = "assistant"
)

// Valid reports whether a is one of the known authors.
func (a Author) Valid() bool {
	return a == AuthorUser || a == AuthorAssistant
}
