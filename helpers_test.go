package packet

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	opEmpty    uint32 = 1
	opGreeting uint32 = 2
	opChat     uint32 = 3
	opSnapshot uint32 = 4
)

type chatMessage struct {
	Channel string `msgpack:"channel"`
	Text    string `msgpack:"text"`
	Seq     uint64 `msgpack:"seq"`
}

// notProto is registered under ProtoBuf although it cannot be marshaled by it.
type notProto struct {
	Value int
}

func newTestRegistry(t testing.TB) *Registry {
	reg := NewRegistry()
	require.NoError(t, reg.Register(opEmpty, ProtoBuf, &emptypb.Empty{}))
	require.NoError(t, reg.Register(opGreeting, ProtoBuf, &wrapperspb.StringValue{}))
	require.NoError(t, reg.Register(opChat, MemoryPack, chatMessage{}))
	return reg
}

func newTestNetwork(t testing.TB) *PooledNetwork {
	return NewNetwork(DefaultConfig(), newTestRegistry(t))
}

// testParsers returns every parser variant linked into this build.
func testParsers(t testing.TB, network Network, cfg Config) map[Variant]Parser {
	parsers := make(map[Variant]Parser)
	for _, v := range []Variant{VariantInner, VariantOuter, VariantOuterWebgl} {
		p, err := NewParser(v, network, cfg)
		if errors.Is(err, ErrUnsupportedVariant) {
			continue
		}
		require.NoError(t, err)
		parsers[v] = p
	}
	return parsers
}

// buildFrame lays a header of the given kind down by hand, followed by body.
func buildFrame(kind Kind, length int32, code, rpcID uint32, routeID int64, body []byte) []byte {
	head := kind.HeadLength()
	b := make([]byte, head, head+len(body))
	binary.LittleEndian.PutUint32(b, uint32(length))
	binary.LittleEndian.PutUint32(b[ProtocolCodeLocation:], code)
	binary.LittleEndian.PutUint32(b[OuterPacketRpcIDLocation:], rpcID)
	if kind == Inner {
		binary.LittleEndian.PutUint64(b[InnerPacketRouteIDLocation:], uint64(routeID))
	}
	return append(b, body...)
}
