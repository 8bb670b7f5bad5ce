// Package statusweb serves a small HTTP/WebSocket status endpoint for
// the task controller, adapted from the reference project's management
// interface: a JSON snapshot endpoint plus a websocket that pushes the
// same snapshot to any connected browser on a fixed interval.
package statusweb

import (
	"encoding/json"
	"time"

	"github.com/sasha-s/go-deadlock"
	"golang.org/x/net/websocket"

	"github.com/lansalot/aog-taskcontroller/internal/tclog"
)

// broadcaster fans a stream of JSON messages out to every currently
// connected websocket, dropping any socket whose write fails or times
// out. Mirrors the original uibroadcaster: a buffered channel plus a
// single writer goroutine, guarded by a deadlock-detecting mutex over
// the socket list.
type broadcaster struct {
	sockets   []*websocket.Conn
	socketsMu *deadlock.Mutex
	messages  chan []byte
	log       *tclog.Logger
}

func newBroadcaster(log *tclog.Logger) *broadcaster {
	b := &broadcaster{
		sockets:   make([]*websocket.Conn, 0),
		socketsMu: &deadlock.Mutex{},
		messages:  make(chan []byte, 64),
		log:       log,
	}
	go b.writer()
	return b
}

// sendJSON marshals v and queues it for broadcast to every connected
// socket. Marshal failures are logged and dropped, never propagated.
func (b *broadcaster) sendJSON(v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		b.log.Errorf("statusweb: marshaling snapshot: %v", err)
		return
	}
	select {
	case b.messages <- payload:
	default:
		b.log.Warningf("statusweb: broadcast channel full, dropping snapshot")
	}
}

func (b *broadcaster) addSocket(sock *websocket.Conn) {
	b.socketsMu.Lock()
	b.sockets = append(b.sockets, sock)
	b.socketsMu.Unlock()
}

func (b *broadcaster) writer() {
	for msg := range b.messages {
		live := make([]*websocket.Conn, 0, len(b.sockets))
		b.socketsMu.Lock()
		for _, sock := range b.sockets {
			deadlineErr := sock.SetWriteDeadline(time.Now().Add(time.Second))
			_, writeErr := sock.Write(msg)
			if deadlineErr == nil && writeErr == nil {
				live = append(live, sock)
			}
		}
		b.sockets = live
		b.socketsMu.Unlock()
	}
}
