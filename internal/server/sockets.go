package server

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// socketRegistry tracks open chat sockets by login session so logout can end
// them.
type socketRegistry struct {
	mu    sync.Mutex
	conns map[string]map[*websocket.Conn]struct{}
}

func newSocketRegistry() *socketRegistry {
	return &socketRegistry{conns: make(map[string]map[*websocket.Conn]struct{})}
}

// add registers conn under session and returns a func that removes it.
func (r *socketRegistry) add(session string, conn *websocket.Conn) func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.conns[session]
	if !ok {
		set = make(map[*websocket.Conn]struct{})
		r.conns[session] = set
	}
	set[conn] = struct{}{}

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if cur := r.conns[session]; cur != nil {
			delete(cur, conn)
			if len(cur) == 0 {
				delete(r.conns, session)
			}
		}
	}
}

// closeSession sends a close frame to every socket of session and closes it.
// It returns the number of sockets closed.
func (r *socketRegistry) closeSession(session string) int {
	if session == "" {
		return 0
	}
	r.mu.Lock()
	set := r.conns[session]
	delete(r.conns, session)
	r.mu.Unlock()

	msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "logged out")
	for conn := range set {
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		_ = conn.Close()
	}
	return len(set)
}
