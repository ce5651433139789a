package pipeline

import (
	"context"
	"log"
	"sync"
)

// EventKind identifies a Worker event.
type EventKind string

const (
	EventProgress EventKind = "progress"
	EventDone     EventKind = "done"
	EventFailed   EventKind = "failed"
)

// Event is emitted by a background run.
type Event struct {
	Kind     EventKind `json:"kind"`
	Path     string    `json:"path"`
	Progress int       `json:"progress,omitempty"`
	Result   *Result   `json:"result,omitempty"`
	Err      error     `json:"-"`
}

// Worker runs recognitions off the caller's goroutine.
//
// Each Start launches an independent run. Starting a new run replaces the
// worker's reference to the current one without waiting for it; the earlier
// run keeps going and still delivers its events on its own channel.
type Worker struct {
	Pipeline *Pipeline

	mu      sync.Mutex
	seq     uint64
	current uint64
	path    string
}

// NewWorker creates a Worker around p.
func NewWorker(p *Pipeline) *Worker {
	return &Worker{Pipeline: p}
}

// Start begins recognizing path in a new goroutine.
//
// The returned channel receives progress events followed by exactly one done
// or failed event, then is closed. It is buffered for a whole run, so a
// caller that stops reading never blocks the worker.
func (w *Worker) Start(ctx context.Context, path string) <-chan Event {
	events := make(chan Event, 4)

	w.mu.Lock()
	w.seq++
	id := w.seq
	if w.current != 0 {
		log.Printf("Replacing active run on %s with %s", w.path, path)
	}
	w.current, w.path = id, path
	w.mu.Unlock()

	go func() {
		defer close(events)
		defer w.finish(id)

		result, err := w.Pipeline.Run(ctx, path, func(v int) {
			events <- Event{Kind: EventProgress, Path: path, Progress: v}
		})
		if err != nil {
			events <- Event{Kind: EventFailed, Path: path, Err: err}
			return
		}
		events <- Event{Kind: EventDone, Path: path, Result: result}
	}()

	return events
}

// Current returns the path of the most recently started run while it is
// still active.
func (w *Worker) Current() (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.path, w.current != 0
}

func (w *Worker) finish(id uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.current == id {
		w.current, w.path = 0, ""
	}
}
