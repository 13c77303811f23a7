package api

import (
	"sync"
)

// SolveEvent is a single progress or terminal event for a solve run,
// keyed by the run's request id.
type SolveEvent struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

const (
	EventProgress = "progress"
	EventResult   = "result"
	EventError    = "error"
)

type EventBroker interface {
	Subscribe(requestID string) chan SolveEvent
	Unsubscribe(requestID string, ch chan SolveEvent)
	Publish(requestID string, evt SolveEvent)
}

// Broker fans solve events out to in-process subscribers. Slow
// subscribers drop events rather than block the solver.
type Broker struct {
	mu   sync.Mutex
	subs map[string]map[chan SolveEvent]struct{} // requestId -> set of channels
}

func NewBroker() *Broker {
	return &Broker{subs: map[string]map[chan SolveEvent]struct{}{}}
}

func (b *Broker) Subscribe(requestID string) chan SolveEvent {
	ch := make(chan SolveEvent, 16)
	b.mu.Lock()
	if b.subs[requestID] == nil {
		b.subs[requestID] = map[chan SolveEvent]struct{}{}
	}
	b.subs[requestID][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Broker) Unsubscribe(requestID string, ch chan SolveEvent) {
	b.mu.Lock()
	if m := b.subs[requestID]; m != nil {
		delete(m, ch)
		if len(m) == 0 {
			delete(b.subs, requestID)
		}
	}
	b.mu.Unlock()
	close(ch)
}

func (b *Broker) Publish(requestID string, evt SolveEvent) {
	b.mu.Lock()
	for ch := range b.subs[requestID] {
		select {
		case ch <- evt:
		default:
		}
	}
	b.mu.Unlock()
}
