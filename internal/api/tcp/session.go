package tcp

import (
	"bufio"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Talha-100/hft-matching-engine/internal/core"
	"github.com/Talha-100/hft-matching-engine/internal/market"
)

// Session handles one client connection. A read goroutine parses and
// dispatches commands; a writer goroutine drains the outbound queue so a
// single write is ever in flight and the read pace never waits on writes.
// The session is identified by a UUID assigned at accept time — never by
// the remote address, which is not unique across reconnects or NATs.
type Session struct {
	id     uuid.UUID
	conn   net.Conn
	addr   string
	engine *core.Engine
	pub    *market.Publisher
	log    *zap.Logger

	flushDelay time.Duration
	onClose    func(uuid.UUID)

	outbound chan string
	done     chan struct{}
	closing  sync.Once
}

func newSession(conn net.Conn, engine *core.Engine, pub *market.Publisher,
	log *zap.Logger, queueSize int, flushDelay time.Duration, onClose func(uuid.UUID)) *Session {
	return &Session{
		id:         uuid.New(),
		conn:       conn,
		addr:       conn.RemoteAddr().String(),
		engine:     engine,
		pub:        pub,
		log:        log,
		flushDelay: flushDelay,
		onClose:    onClose,
		outbound:   make(chan string, queueSize),
		done:       make(chan struct{}),
	}
}

func (s *Session) ID() uuid.UUID { return s.id }

// Deliver queues an out-of-band message without blocking. A full queue
// drops the message (market data is fire-and-forget); a dead session
// returns false so the publisher can purge the handle.
func (s *Session) Deliver(msg string) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.outbound <- msg:
	case <-s.done:
		return false
	default:
		s.log.Warn("market data dropped, session queue full",
			zap.String("session", s.id.String()))
	}
	return true
}

// start registers the session with the publisher, greets the client, and
// spawns the read and write loops.
func (s *Session) start() {
	s.pub.Register(s)
	s.log.Info("client connected",
		zap.String("session", s.id.String()),
		zap.String("addr", s.addr),
		zap.Int("active_clients", s.pub.Count()))

	go s.writeLoop()
	s.send(welcomeBanner())
	go s.readLoop()
}

// send queues a protocol response, blocking if the queue is full so the
// session's own responses are never dropped or reordered.
func (s *Session) send(msg string) {
	select {
	case s.outbound <- msg:
	case <-s.done:
	}
}

func (s *Session) readLoop() {
	r := bufio.NewReader(s.conn)
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			s.teardown()
			return
		}
		if done := s.handle(strings.TrimRight(line, "\r\n")); done {
			return
		}
	}
}

// handle dispatches one command line. It returns true once the session
// has acknowledged a disconnect and the read loop must stop.
func (s *Session) handle(line string) bool {
	cmd := parseCommand(line)
	switch cmd.kind {
	case cmdOrder:
		id, trades := s.engine.Submit(cmd.side, cmd.price, cmd.quantity)
		s.send(formatConfirmed(id))
		for _, t := range trades {
			s.send(formatTrade(t))
			s.pub.BroadcastTrade(t, s.id)
		}

	case cmdCancel:
		if s.engine.Cancel(cmd.orderID) {
			s.send(formatCancelled(cmd.orderID))
		} else {
			s.send(formatNotFound(cmd.orderID))
		}

	case cmdDisconnect:
		s.send(respDisconnecting)
		s.closeAfterFlush()
		return true

	default:
		s.send(respInvalidInput)
	}
	return false
}

func (s *Session) writeLoop() {
	for {
		select {
		case <-s.done:
			return
		case msg := <-s.outbound:
			if _, err := s.conn.Write([]byte(msg)); err != nil {
				s.teardown()
				return
			}
		}
	}
}

// closeAfterFlush gives the writer a short window to transmit the
// disconnect acknowledgement before the socket is closed.
func (s *Session) closeAfterFlush() {
	go func() {
		select {
		case <-time.After(s.flushDelay):
		case <-s.done:
		}
		s.teardown()
	}()
}

// teardown runs exactly once no matter how many read, write, or timer
// paths reach it. It unregisters eagerly so the publisher never has to
// scan a dead handle longer than necessary.
func (s *Session) teardown() {
	s.closing.Do(func() {
		close(s.done)
		_ = s.conn.Close()
		s.pub.Unregister(s.id)
		s.log.Info("client disconnected",
			zap.String("session", s.id.String()),
			zap.String("addr", s.addr))
		if s.onClose != nil {
			s.onClose(s.id)
		}
	})
}
