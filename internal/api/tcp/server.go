package tcp

import (
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Talha-100/hft-matching-engine/internal/core"
	"github.com/Talha-100/hft-matching-engine/internal/market"
)

const (
	defaultQueueSize  = 64
	defaultFlushDelay = 100 * time.Millisecond
)

// Server accepts client connections and owns the strong references to
// live sessions, keyed by session UUID. Sessions remove themselves via
// the onClose callback when their connection ends.
type Server struct {
	engine *core.Engine
	pub    *market.Publisher
	log    *zap.Logger

	queueSize  int
	flushDelay time.Duration

	ln       net.Listener
	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
	shutdown atomic.Bool
}

type ServerOption func(*Server)

// WithQueueSize sets the per-session outbound queue depth.
func WithQueueSize(n int) ServerOption {
	return func(s *Server) {
		if n > 0 {
			s.queueSize = n
		}
	}
}

// WithFlushDelay sets the delay between a disconnect acknowledgement and
// the socket close.
func WithFlushDelay(d time.Duration) ServerOption {
	return func(s *Server) {
		if d > 0 {
			s.flushDelay = d
		}
	}
}

func NewServer(engine *core.Engine, pub *market.Publisher, log *zap.Logger, opts ...ServerOption) *Server {
	s := &Server{
		engine:     engine,
		pub:        pub,
		log:        log,
		queueSize:  defaultQueueSize,
		flushDelay: defaultFlushDelay,
		sessions:   make(map[uuid.UUID]*Session),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) Listen(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.ln = ln
	s.log.Info("listening", zap.String("addr", ln.Addr().String()))
	return nil
}

// Addr reports the bound listen address; useful when listening on ":0".
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Serve runs the accept loop until Shutdown closes the listener. Accept
// errors are logged and the loop continues; only shutdown ends it.
func (s *Server) Serve() error {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if s.shutdown.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.log.Error("accept failed", zap.Error(err))
			continue
		}
		if s.shutdown.Load() {
			_ = conn.Close()
			return nil
		}

		sess := newSession(conn, s.engine, s.pub, s.log, s.queueSize, s.flushDelay, s.removeSession)
		s.mu.Lock()
		s.sessions[sess.ID()] = sess
		s.mu.Unlock()
		sess.start()
	}
}

func (s *Server) removeSession(id uuid.UUID) {
	s.mu.Lock()
	delete(s.sessions, id)
	n := len(s.sessions)
	s.mu.Unlock()
	s.log.Info("session removed", zap.String("session", id.String()), zap.Int("active_clients", n))
}

// SessionCount reports the number of live sessions the server owns.
func (s *Server) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Shutdown stops accepting, notifies live sessions, and releases the
// server's references to them. Each session gets the usual flush window
// for the notice before its socket closes.
func (s *Server) Shutdown() {
	if !s.shutdown.CompareAndSwap(false, true) {
		return
	}
	if s.ln != nil {
		_ = s.ln.Close()
	}

	s.mu.Lock()
	live := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		live = append(live, sess)
	}
	s.sessions = make(map[uuid.UUID]*Session)
	s.mu.Unlock()

	for _, sess := range live {
		sess.Deliver(respShuttingDown)
		sess.closeAfterFlush()
	}
	s.log.Info("server shutdown complete", zap.Int("sessions_closed", len(live)))
}
