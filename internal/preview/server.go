// Package preview serves rendered draw lists to a local browser viewer over a
// websocket and collects its control input.
package preview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	ws "github.com/gorilla/websocket"

	"github.com/moonlitstudios/backlot/internal/compositor"
	"github.com/moonlitstudios/backlot/internal/player"
	"github.com/moonlitstudios/backlot/pkg/streaming"
)

const (
	// Path is where the viewer connects.
	Path = "/ws"

	clientSendSize = 4
	writeWait      = 5 * time.Second
	maxMessageSize = 4 << 10
)

// ErrNotLoopback is returned for listen addresses reachable from outside.
var ErrNotLoopback = errors.New("preview server must listen on a loopback address")

// Config configures the preview server.
type Config struct {
	Listen    string
	FrameRate int
	TickRate  int
	Viewport  streaming.Size
}

type client struct {
	conn *ws.Conn
	send chan []byte
	done chan struct{}
}

// Server broadcasts frames to every connected viewer. The last input
// received from any viewer wins.
type Server struct {
	cfg      Config
	every    uint64
	logger   *slog.Logger
	upgrader ws.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	input   player.Input
	closed  bool

	listener net.Listener
	http     *http.Server
	wg       sync.WaitGroup

	dropped atomic.Uint64
}

// New validates cfg. Nothing listens until Start.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	if err := checkLoopback(cfg.Listen); err != nil {
		return nil, err
	}
	if cfg.TickRate <= 0 {
		return nil, fmt.Errorf("tick rate must be positive, got %d", cfg.TickRate)
	}
	if cfg.FrameRate <= 0 || cfg.FrameRate > cfg.TickRate {
		cfg.FrameRate = cfg.TickRate
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:     cfg,
		every:   uint64(cfg.TickRate / cfg.FrameRate),
		logger:  logger.With("component", "preview"),
		clients: make(map[*client]struct{}),
	}
	s.upgrader = ws.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 64 << 10,
		// the listener is loopback only
		CheckOrigin: func(*http.Request) bool { return true },
	}
	return s, nil
}

func checkLoopback(addr string) error {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid listen address %q: %w", addr, err)
	}
	if host == "localhost" {
		return nil
	}
	ip := net.ParseIP(host)
	if ip == nil || !ip.IsLoopback() {
		return fmt.Errorf("%w: %q", ErrNotLoopback, addr)
	}
	return nil
}

// Start listens and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return fmt.Errorf("preview listen: %w", err)
	}
	mux := http.NewServeMux()
	mux.HandleFunc(Path, s.handle)

	s.listener = ln
	s.http = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Preview server stopped", "error", err)
		}
	}()
	s.logger.Info("Preview server listening", "addr", ln.Addr().String())
	return nil
}

// Addr is the bound address, useful with port 0.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Clients is the number of connected viewers.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Dropped counts frames skipped for viewers that fell behind.
func (s *Server) Dropped() uint64 {
	return s.dropped.Load()
}

// Input returns the latest control input. Held controls persist; buttons
// are cleared once read.
func (s *Server) Input() player.Input {
	s.mu.Lock()
	defer s.mu.Unlock()
	in := s.input
	s.input.Press, s.input.Select, s.input.Back, s.input.Scroll = false, false, false, 0
	return in
}

// Due reports whether tick should be broadcast at the configured frame rate.
func (s *Server) Due(tick uint64) bool {
	return tick%s.every == 0
}

// Broadcast sends one frame to every viewer. A viewer whose queue is full
// misses the frame.
func (s *Server) Broadcast(tick uint64, darkness float64, cmds []compositor.Command) error {
	s.mu.Lock()
	n := len(s.clients)
	s.mu.Unlock()
	if n == 0 {
		return nil
	}

	raw, err := json.Marshal(cmds)
	if err != nil {
		return fmt.Errorf("marshal commands: %w", err)
	}
	data, err := streaming.Marshal(streaming.TypeFrame, streaming.FramePayload{
		Tick:     tick,
		Darkness: darkness,
		Commands: raw,
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		select {
		case c.send <- data:
		default:
			s.dropped.Add(1)
		}
	}
	return nil
}

// Close stops accepting viewers and disconnects the connected ones.
func (s *Server) Close(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	// hijacked websocket connections are not tracked by Shutdown
	err := s.http.Shutdown(ctx)

	s.mu.Lock()
	s.closed = true
	for c := range s.clients {
		s.dropClientLocked(c)
	}
	s.mu.Unlock()

	s.wg.Wait()
	return err
}

func (s *Server) dropClientLocked(c *client) {
	if _, ok := s.clients[c]; !ok {
		return
	}
	delete(s.clients, c)
	close(c.done)
	_ = c.conn.Close()
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("Preview upgrade failed", "error", err)
		return
	}

	hello, err := streaming.Marshal(streaming.TypeHello, streaming.HelloPayload{
		Version:  streaming.ProtocolVersion,
		Viewport: s.cfg.Viewport,
		TickRate: s.cfg.TickRate,
	})
	if err != nil {
		_ = conn.Close()
		return
	}

	c := &client{conn: conn, send: make(chan []byte, clientSendSize), done: make(chan struct{})}
	c.send <- hello

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = conn.Close()
		return
	}
	s.clients[c] = struct{}{}
	s.wg.Add(1)
	s.mu.Unlock()
	s.logger.Info("Preview viewer connected", "remote", r.RemoteAddr)

	go s.writeLoop(c)
	s.readLoop(c)

	s.mu.Lock()
	s.dropClientLocked(c)
	s.mu.Unlock()
	s.logger.Info("Preview viewer disconnected", "remote", r.RemoteAddr)
}

// writeLoop is the only writer on c.conn.
func (s *Server) writeLoop(c *client) {
	defer s.wg.Done()
	for {
		select {
		case <-c.done:
			return
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(ws.TextMessage, data); err != nil {
				s.logger.Debug("Preview write failed", "error", err)
				_ = c.conn.Close()
				return
			}
		}
	}
}

func (s *Server) readLoop(c *client) {
	c.conn.SetReadLimit(maxMessageSize)
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var env streaming.Envelope
		if err := json.Unmarshal(msg, &env); err != nil {
			s.logger.Debug("Preview message is not an envelope", "error", err)
			continue
		}
		if env.Type != streaming.TypeInput {
			s.logger.Debug("Unexpected preview message", "type", env.Type)
			continue
		}

		var in streaming.InputPayload
		if err := streaming.Decode(env, streaming.TypeInput, &in); err != nil {
			s.logger.Debug("Bad preview input", "error", err)
			continue
		}
		s.mu.Lock()
		s.input = toInput(in)
		s.mu.Unlock()
	}
}

func toInput(in streaming.InputPayload) player.Input {
	return player.Input{
		Steer:  min(max(in.Steer, -1), 1),
		Thrust: in.Thrust,
		Brake:  in.Brake,
		Press:  in.Press,
		Select: in.Select,
		Back:   in.Back,
		Scroll: in.Scroll,
	}
}
