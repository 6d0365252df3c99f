package packet

import (
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Dispatcher hands received frames to business logic. Dispatch takes
// ownership of info and must eventually Release it.
type Dispatcher interface {
	Dispatch(s *Session, info *PackInfo)
}

// DispatcherFunc adapts a function to the Dispatcher interface.
type DispatcherFunc func(s *Session, info *PackInfo)

func (f DispatcherFunc) Dispatch(s *Session, info *PackInfo) { f(s, info) }

// Middleware wraps a Dispatcher with extra behavior.
type Middleware func(next Dispatcher) Dispatcher

// Chain composes middlewares so that the first one runs outermost.
func Chain(middlewares ...Middleware) Middleware {
	return func(next Dispatcher) Dispatcher {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}

// RateLimit drops frames beyond r per second with bursts of up to burst
// frames. Dropped descriptors are released here.
func RateLimit(r float64, burst int) Middleware {
	return func(next Dispatcher) Dispatcher {
		limiter := rate.NewLimiter(rate.Limit(r), burst)
		return DispatcherFunc(func(s *Session, info *PackInfo) {
			if !limiter.Allow() {
				s.log.Warn().
					Uint32("rpc_id", info.RpcID).
					Uint32("protocol_code", info.ProtocolCode).
					Msg("rate limit exceeded, frame dropped")
				recordDropped(info.Kind)
				_ = info.Release()
				return
			}
			next.Dispatch(s, info)
		})
	}
}

// Logging debug-logs every dispatched frame and how long the handler took.
func Logging(log zerolog.Logger) Middleware {
	return func(next Dispatcher) Dispatcher {
		return DispatcherFunc(func(s *Session, info *PackInfo) {
			start := time.Now()
			kind, rpcID, code, length := info.Kind, info.RpcID, info.ProtocolCode, info.PacketLength
			next.Dispatch(s, info)
			log.Debug().
				Stringer("kind", kind).
				Uint32("rpc_id", rpcID).
				Uint32("protocol_code", code).
				Int32("length", length).
				Dur("took", time.Since(start)).
				Msg("frame dispatched")
		})
	}
}

// WrapDispatcher applies the middlewares enabled by cfg to d.
func (c Config) WrapDispatcher(d Dispatcher) Dispatcher {
	if c.RateLimit > 0 {
		return RateLimit(c.RateLimit, c.RateBurst)(d)
	}
	return d
}
