package statusweb

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"golang.org/x/net/websocket"

	"github.com/lansalot/aog-taskcontroller/internal/subnet"
	"github.com/lansalot/aog-taskcontroller/internal/tclog"
	"github.com/lansalot/aog-taskcontroller/internal/tcserver"
)

// SnapshotSource is anything that can produce the current client status
// snapshot; satisfied by *tcserver.Server.
type SnapshotSource interface {
	Snapshot() []tcserver.ClientSummary
}

// Server serves the status HTTP API and websocket feed. It does not
// drive the task controller in any way — it is a read-only window onto
// the server's state, wired the same way the reference project's
// management web server wires trim/relay control onto its own state.
type Server struct {
	http *http.Server
	bc   *broadcaster
	done chan struct{}
}

// Start binds addr and begins serving. Non-blocking: the HTTP server
// runs on its own goroutine, mirroring startWebServer.
func Start(addr string, source SnapshotSource, subnetCfg *subnet.Config, log *tclog.Logger) *Server {
	mux := http.NewServeMux()
	bc := newBroadcaster(log)

	mux.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(source.Snapshot()); err != nil {
			log.Errorf("statusweb: encoding status response: %v", err)
		}
	})

	mux.HandleFunc("/api/subnet", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		resp := struct {
			Subnet string `json:"subnet"`
		}{Subnet: subnetCfg.String()}
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			log.Errorf("statusweb: encoding subnet response: %v", err)
		}
	})

	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		s := websocket.Server{Handler: websocket.Handler(func(conn *websocket.Conn) {
			bc.addSocket(conn)
			buf := make([]byte, 256)
			for {
				if _, err := conn.Read(buf); err != nil {
					return
				}
			}
		})}
		s.ServeHTTP(w, r)
	})

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		log.Infof("statusweb: listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("statusweb: server error: %v", err)
		}
	}()

	s := &Server{http: srv, bc: bc, done: make(chan struct{})}
	go s.pushLoop(source)
	return s
}

// pushLoop periodically broadcasts the current snapshot to every
// connected websocket. A fixed poll interval stands in for the
// original's per-write broadcast, since ClientState mutates in the
// single-threaded event loop rather than through calls this package can
// intercept.
func (s *Server) pushLoop(source SnapshotSource) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.bc.sendJSON(source.Snapshot())
		}
	}
}

// Shutdown stops the HTTP listener and the snapshot push loop. Errors
// are logged via the standard log package, matching the reference
// project's shutdown path.
func (s *Server) Shutdown() {
	close(s.done)
	if err := s.http.Close(); err != nil {
		log.Printf("statusweb: shutdown error: %v", err)
	}
}
