package etl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/SageData-OOD/tap-firebird/internal/domain"
	"github.com/SageData-OOD/tap-firebird/internal/jsoncodec"
)

// ── Emitter ────────────────────────────────────────────────
// The sink the engine pushes messages into. The engine never knows where
// messages end up: stdout, the run store, or a test recorder.

// Emitter receives tap messages in output order.
type Emitter interface {
	Emit(ctx context.Context, msg domain.Message) error
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(ctx context.Context, msg domain.Message) error

func (f EmitterFunc) Emit(ctx context.Context, msg domain.Message) error { return f(ctx, msg) }

// LineEmitter writes one JSON object per line and flushes after every line
// so a consumer tailing the stream sees each message immediately.
type LineEmitter struct {
	mu sync.Mutex
	w  *bufio.Writer
}

func NewLineEmitter(w io.Writer) *LineEmitter {
	return &LineEmitter{w: bufio.NewWriter(w)}
}

func (e *LineEmitter) Emit(_ context.Context, msg domain.Message) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := jsoncodec.Encode(e.w, msg); err != nil {
		return fmt.Errorf("write %s message: %w", msg.MessageType(), err)
	}
	return e.w.Flush()
}

// Recorder keeps every emitted message in memory.
type Recorder struct {
	mu       sync.Mutex
	Messages []domain.Message
}

func (r *Recorder) Emit(_ context.Context, msg domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Messages = append(r.Messages, msg)
	return nil
}

// Types returns the message types in emission order.
func (r *Recorder) Types() []domain.MessageType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.MessageType, len(r.Messages))
	for i, m := range r.Messages {
		out[i] = m.MessageType()
	}
	return out
}

// Records returns only the RECORD messages.
func (r *Recorder) Records() []*domain.RecordMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.RecordMessage
	for _, m := range r.Messages {
		if rec, ok := m.(*domain.RecordMessage); ok {
			out = append(out, rec)
		}
	}
	return out
}

// States returns only the STATE messages.
func (r *Recorder) States() []*domain.StateMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.StateMessage
	for _, m := range r.Messages {
		if st, ok := m.(*domain.StateMessage); ok {
			out = append(out, st)
		}
	}
	return out
}

// Tee forwards each message to every emitter in order and stops at the
// first error.
func Tee(emitters ...Emitter) Emitter {
	return EmitterFunc(func(ctx context.Context, msg domain.Message) error {
		for _, e := range emitters {
			if e == nil {
				continue
			}
			if err := e.Emit(ctx, msg); err != nil {
				return err
			}
		}
		return nil
	})
}
