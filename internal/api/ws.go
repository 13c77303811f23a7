package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(_ *http.Request) bool { return true }}

type wsMessage struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// SolveStreamHandler handles GET /v1/solve/stream. Clients send a "solve"
// message carrying an inline problem, or "subscribe" with the requestId of a
// solve started over HTTP; the server streams progress, result and error
// events followed by "complete".
func (s *Server) SolveStreamHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer func() { _ = conn.Close() }()

	conn.SetReadLimit(1 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error { _ = conn.SetReadDeadline(time.Now().Add(60 * time.Second)); return nil })

	// one writer at a time; fanout goroutines share the connection
	var wmu sync.Mutex
	write := func(v any) error {
		wmu.Lock()
		defer wmu.Unlock()
		return conn.WriteJSON(v)
	}

	subs := map[string]chan SolveEvent{}
	defer func() {
		for id, ch := range subs {
			s.Broker.Unsubscribe(id, ch)
		}
	}()

	attach := func(id string) {
		if _, ok := subs[id]; ok {
			return
		}
		ch := s.Broker.Subscribe(id)
		subs[id] = ch
		go func() {
			for evt := range ch {
				data, _ := json.Marshal(evt.Data)
				_ = write(wsMessage{Type: evt.Type, ID: id, Payload: data})
				if evt.Type == EventResult || evt.Type == EventError {
					_ = write(wsMessage{Type: "complete", ID: id})
				}
			}
		}()
	}

	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		switch msg.Type {
		case "ping":
			_ = write(wsMessage{Type: "pong"})
		case "subscribe":
			if msg.ID == "" {
				_ = write(wsMessage{Type: EventError, Payload: []byte(`{"detail":"requestId required"}`)})
				continue
			}
			attach(msg.ID)
		case "solve":
			var req solveRequest
			if err := json.Unmarshal(msg.Payload, &req); err != nil {
				_ = write(wsMessage{Type: EventError, ID: msg.ID, Payload: []byte(`{"detail":"invalid solve payload"}`)})
				continue
			}
			if err := validateSolveOptions(req.Options); err != nil {
				data, _ := json.Marshal(map[string]string{"detail": err.Error()})
				_ = write(wsMessage{Type: EventError, ID: msg.ID, Payload: data})
				continue
			}
			if !s.limiter.Allow() {
				_ = write(wsMessage{Type: EventError, ID: msg.ID, Payload: []byte(`{"detail":"solve rate limit exceeded, retry later"}`)})
				continue
			}
			if req.RequestID == "" {
				req.RequestID = uuid.NewString()
			}
			attach(req.RequestID)
			data, _ := json.Marshal(map[string]string{"requestId": req.RequestID})
			_ = write(wsMessage{Type: "accepted", ID: req.RequestID, Payload: data})
			go func(req solveRequest) {
				// runSolve publishes progress and the terminal event
				_, _, _ = s.runSolve(r, req.RequestID, req.Tasks, req.Agents, s.mergeOptions(req.Options))
			}(req)
		}
	}
}
