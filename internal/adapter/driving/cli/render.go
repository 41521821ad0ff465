package cli

import (
	"fmt"
	"io"
	"sync"

	"github.com/ericfisherdev/chill/internal/application"
	"github.com/ericfisherdev/chill/internal/domain/model"
)

// TypingIndicator is printed while a reply is pending.
const TypingIndicator = "Chill is typing..."

// Renderer prints transcripts to a terminal. It remembers how many turns of
// the current transcript it has shown so each update prints only new turns.
// Observe is safe to pass as an application.Observer.
type Renderer struct {
	mu         sync.Mutex
	w          io.Writer
	identifier string
	shown      int
}

// NewRenderer creates a Renderer writing to w.
func NewRenderer(w io.Writer) *Renderer {
	return &Renderer{w: w}
}

// Transcript prints every turn of t and resets the shown counter.
func (r *Renderer) Transcript(t model.Transcript) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.identifier = t.Identifier
	r.shown = 0
	r.printNew(t)
}

// Observe prints turns added since the last call and the typing indicator.
func (r *Renderer) Observe(u application.Update) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if u.Transcript.Identifier != r.identifier {
		r.identifier = u.Transcript.Identifier
		r.shown = 0
	}
	r.printNew(u.Transcript)
	if u.Typing {
		fmt.Fprintln(r.w, TypingIndicator)
	}
}

// Reset forgets the current transcript, e.g. after logout.
func (r *Renderer) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.identifier = ""
	r.shown = 0
}

// Printf writes a status line outside the transcript flow.
func (r *Renderer) Printf(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.w, format, args...)
}

func (r *Renderer) printNew(t model.Transcript) {
	for i := r.shown; i < len(t.Turns); i++ {
		fmt.Fprintln(r.w, formatTurn(i+1, t.Turns[i]))
	}
	if len(t.Turns) > r.shown {
		r.shown = len(t.Turns)
	}
}

func formatTurn(n int, turn model.Turn) string {
	speaker := "Chill"
	if turn.Author == model.AuthorUser {
		speaker = "You"
	}
	line := fmt.Sprintf("[%d %s] %s: %s", n, turn.CreatedAt.Local().Format("15:04"), speaker, turn.Text)
	if turn.HasAudio() {
		line += " (audio " + turn.AudioRef + ")"
	}
	return line
}
