package devtools

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/vango-dev/reconciler/pkg/reconciler"
)

// client is one websocket subscriber.
type client struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.config.Logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, s.config.ClientBuffer),
		done: make(chan struct{}),
	}
	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()
	s.metrics.clients(1)
	s.config.Logger.Debug("devtools client connected", "remote", r.RemoteAddr)

	go s.writeLoop(c)
	s.readLoop(c)
}

// readLoop discards client messages and unregisters the client once the
// connection closes.
func (s *Server) readLoop(c *client) {
	defer s.removeClient(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				s.config.Logger.Warn("devtools read error", "error", err)
			}
			return
		}
	}
}

func (s *Server) writeLoop(c *client) {
	defer c.conn.Close()
	for {
		select {
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				s.config.Logger.Debug("devtools write failed", "error", err)
				return
			}
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

func (s *Server) removeClient(c *client) {
	s.mu.Lock()
	if _, ok := s.clients[c]; ok {
		delete(s.clients, c)
		close(c.done)
		s.metrics.clients(-1)
	}
	s.mu.Unlock()
}

func (s *Server) closeClients() {
	s.mu.Lock()
	for c := range s.clients {
		delete(s.clients, c)
		close(c.done)
		s.metrics.clients(-1)
	}
	s.mu.Unlock()
}

// Clients returns the number of connected websocket clients.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Dropped returns the number of events dropped for slow clients.
func (s *Server) Dropped() uint64 {
	return s.dropped.Load()
}

// Publish streams a commit summary to every client. It never blocks; a
// client whose buffer is full misses the event. Suitable as a
// reconciler.WithOnCommit callback.
func (s *Server) Publish(info reconciler.CommitInfo) {
	ev := CommitEvent{
		Root:      s.rootID(info.Root),
		Lane:      info.Lane.String(),
		Fibers:    info.Fibers,
		Mutations: info.Mutations,
		Deletions: info.Deletions,
		Time:      time.Now(),
	}
	data, err := json.Marshal(ev)
	if err != nil {
		s.config.Logger.Error("encode commit event", "error", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		select {
		case c.send <- data:
		default:
			s.dropped.Add(1)
			s.metrics.dropped()
		}
	}
}

func (s *Server) rootID(root *reconciler.FiberRoot) int {
	rec := s.rec.Load()
	if rec == nil {
		return -1
	}
	for i, r := range rec.Roots() {
		if r == root {
			return i
		}
	}
	return -1
}
