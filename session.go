package packet

import (
	"io"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Session glues one connection's datagrams to a Parser and a Dispatcher.
//
// Receive must be called from the connection's receive loop only; Send and
// Forward may be called from any goroutine.
type Session struct {
	parser     Parser
	conn       io.Writer
	dispatcher Dispatcher
	log        zerolog.Logger

	mu     sync.Mutex // serializes writes to conn
	closed atomic.Bool
}

// NewSession creates a session writing outgoing frames to conn. If conn is an
// io.Closer it is closed together with the session.
func NewSession(parser Parser, conn io.Writer, dispatcher Dispatcher, log zerolog.Logger) *Session {
	return &Session{
		parser:     parser,
		conn:       conn,
		dispatcher: dispatcher,
		log:        log.With().Stringer("kind", parser.Kind()).Logger(),
	}
}

// Parser returns the frame codec of the session.
func (s *Session) Parser() Parser { return s.parser }

// Logger returns the session logger.
func (s *Session) Logger() zerolog.Logger { return s.log }

// Receive decodes one complete datagram and dispatches it. A datagram shorter
// than a header is dropped. A malformed frame closes the session and its
// error is returned.
func (s *Session) Receive(datagram []byte) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	kind := s.parser.Kind()

	info, ok, err := s.parser.UnPack(datagram, len(datagram))
	if err != nil {
		recordFrameError(kind, err)
		if IsFatal(err) {
			s.log.Error().Err(err).Int("count", len(datagram)).Msg("malformed frame, closing session")
			_ = s.Close()
		}
		return err
	}
	if !ok {
		s.log.Debug().Int("count", len(datagram)).Msg("datagram shorter than header ignored")
		return nil
	}

	recordUnpack(kind, len(datagram))
	s.dispatcher.Dispatch(s, info)
	return nil
}

// Send serializes msg into a new frame and writes it.
func (s *Session) Send(rpcID uint32, routeID int64, msg any) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	buf, err := s.parser.Pack(rpcID, routeID, nil, msg)
	if err != nil {
		recordFrameError(s.parser.Kind(), err)
		return err
	}
	return s.write(buf)
}

// Forward rewrites the rpc and route ids of an already encoded frame and
// writes it. Forward consumes one reference to buf whether or not it fails;
// callers that keep using buf must Retain it first.
func (s *Session) Forward(rpcID uint32, routeID int64, buf *Buffer) error {
	if buf == nil {
		return ErrNilMessage
	}
	if s.closed.Load() {
		_ = buf.Release()
		return ErrSessionClosed
	}
	if _, err := s.parser.Pack(rpcID, routeID, buf, nil); err != nil {
		recordFrameError(s.parser.Kind(), err)
		_ = buf.Release()
		return err
	}
	return s.write(buf)
}

// write sends a whole frame and releases it.
func (s *Session) write(buf *Buffer) error {
	defer buf.Release()

	frame := buf.Bytes()
	s.mu.Lock()
	_, err := s.conn.Write(frame)
	s.mu.Unlock()
	if err != nil {
		s.log.Warn().Err(err).Int("size", len(frame)).Msg("frame write failed")
		return err
	}
	recordPack(s.parser.Kind(), len(frame))
	return nil
}

// Close marks the session closed and closes the underlying connection when
// it supports it. Only the first call has any effect.
func (s *Session) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	s.log.Debug().Msg("session closed")
	if c, ok := s.conn.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Closed reports whether Close was called.
func (s *Session) Closed() bool { return s.closed.Load() }
