package packet

import (
	"bytes"
	"encoding/binary"
	"io"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func TestUnPackIncomplete(t *testing.T) {
	network := newTestNetwork(t)
	for v, p := range testParsers(t, network, DefaultConfig()) {
		t.Run(v.String(), func(t *testing.T) {
			head := p.Kind().HeadLength()

			info, ok, err := p.UnPack(make([]byte, head-1), head-1)
			assert.NoError(t, err)
			assert.False(t, ok)
			assert.Nil(t, info)

			info, ok, err = p.UnPack(nil, 0)
			assert.NoError(t, err)
			assert.False(t, ok)
			assert.Nil(t, info)
		})
	}
}

func TestUnPackInconsistentCount(t *testing.T) {
	network := newTestNetwork(t)
	for v, p := range testParsers(t, network, DefaultConfig()) {
		t.Run(v.String(), func(t *testing.T) {
			frame := buildFrame(p.Kind(), 4, 1, 1, 1, []byte{1, 2, 3, 4})

			_, ok, err := p.UnPack(frame, len(frame)+1)
			assert.ErrorIs(t, err, ErrInconsistentLength)
			assert.False(t, ok)
			assert.True(t, IsFatal(err))

			_, _, err = p.UnPack(frame, -1)
			assert.ErrorIs(t, err, ErrInconsistentLength)
		})
	}
}

func TestUnPackTruncated(t *testing.T) {
	network := newTestNetwork(t)
	for v, p := range testParsers(t, network, DefaultConfig()) {
		t.Run(v.String(), func(t *testing.T) {
			frame := buildFrame(p.Kind(), 0, 1, 1, 1, make([]byte, 4))
			binary.LittleEndian.PutUint32(frame, uint32(len(frame)+1))

			info, ok, err := p.UnPack(frame, len(frame))
			require.ErrorIs(t, err, ErrFrameTruncated)
			assert.True(t, IsFatal(err))
			assert.False(t, ok)
			assert.Nil(t, info)
		})
	}
}

func TestUnPackOversized(t *testing.T) {
	network := newTestNetwork(t)
	cfg := DefaultConfig()
	cfg.MaxBodyLength = 16

	for v, p := range testParsers(t, network, cfg) {
		t.Run(v.String(), func(t *testing.T) {
			// Enough bytes are present; only the limit is exceeded.
			frame := buildFrame(p.Kind(), 17, 1, 1, 1, make([]byte, 40))

			info, ok, err := p.UnPack(frame, len(frame))
			require.ErrorIs(t, err, ErrFrameOversized)
			assert.True(t, IsFatal(err))
			assert.False(t, ok)
			assert.Nil(t, info)
		})
	}
}

func TestUnPackEmptyBodySentinel(t *testing.T) {
	network := newTestNetwork(t)
	for v, p := range testParsers(t, network, DefaultConfig()) {
		t.Run(v.String(), func(t *testing.T) {
			frame := buildFrame(p.Kind(), EmptyBodyLength, opEmpty, 3, 0, nil)

			info, ok, err := p.UnPack(frame, len(frame))
			require.NoError(t, err)
			require.True(t, ok)
			defer info.Release()

			assert.Equal(t, EmptyBodyLength, info.PacketLength)
			assert.True(t, info.IsEmptyBody())
			assert.Empty(t, info.Body())
			assert.Equal(t, frame, info.Frame())
		})

		t.Run(v.String()+"/TrailingBytes", func(t *testing.T) {
			trailing := []byte{0x0a, 0x02, 'h', 'i'}
			frame := buildFrame(p.Kind(), EmptyBodyLength, opGreeting, 4, 0, trailing)

			info, ok, err := p.UnPack(frame, len(frame))
			require.NoError(t, err)
			require.True(t, ok)
			defer info.Release()

			assert.True(t, info.IsEmptyBody())
			assert.Nil(t, info.Body())
			assert.Equal(t, frame, info.Frame(), "the frame keeps every received byte")

			msg, err := info.Message(network.Registry())
			require.NoError(t, err)
			assert.Empty(t, msg.(*wrapperspb.StringValue).GetValue())
		})
	}
}

func TestPackEmptyMessageWritesSentinel(t *testing.T) {
	network := newTestNetwork(t)
	for v, p := range testParsers(t, network, DefaultConfig()) {
		t.Run(v.String(), func(t *testing.T) {
			for _, msg := range []proto.Message{&emptypb.Empty{}, wrapperspb.String("")} {
				buf, err := p.Pack(5, 9, nil, msg)
				require.NoError(t, err)

				frame := buf.Bytes()
				require.Len(t, frame, p.Kind().HeadLength())
				assert.Equal(t, []byte{0xff, 0xff, 0xff, 0xff}, frame[:PacketLength])
				assert.EqualValues(t, 5, binary.LittleEndian.Uint32(frame[OuterPacketRpcIDLocation:]))

				info, ok, err := p.UnPack(frame, len(frame))
				require.NoError(t, err)
				require.True(t, ok)
				assert.True(t, info.IsEmptyBody())
				assert.Equal(t, EmptyBodyLength, info.PacketLength)

				got, err := info.Message(network.Registry())
				require.NoError(t, err)
				assert.True(t, proto.Equal(msg, got.(proto.Message)))

				require.NoError(t, info.Release())
				require.NoError(t, buf.Release())
			}
		})
	}
}

func TestPackRoundTrip(t *testing.T) {
	network := newTestNetwork(t)
	reg := network.Registry()

	for v, p := range testParsers(t, network, DefaultConfig()) {
		t.Run(v.String(), func(t *testing.T) {
			wantRoute := int64(0)
			if p.Kind() == Inner {
				wantRoute = -1001
			}

			t.Run("ProtoBuf", func(t *testing.T) {
				buf, err := p.Pack(42, -1001, nil, wrapperspb.String("hello"))
				require.NoError(t, err)
				defer buf.Release()
				assert.Zero(t, buf.Position())

				info, ok, err := p.UnPack(buf.Bytes(), buf.Len())
				require.NoError(t, err)
				require.True(t, ok)
				defer info.Release()

				assert.Equal(t, p.Kind(), info.Kind)
				assert.EqualValues(t, 42, info.RpcID)
				assert.Equal(t, wantRoute, info.RouteID)
				assert.Equal(t, opGreeting, info.ProtocolCode)
				assert.EqualValues(t, buf.Len()-p.Kind().HeadLength(), info.PacketLength)

				body, _ := proto.Marshal(wrapperspb.String("hello"))
				assert.Equal(t, body, info.Body())

				var got wrapperspb.StringValue
				require.NoError(t, info.Unmarshal(reg, &got))
				assert.Equal(t, "hello", got.GetValue())
			})

			t.Run("MemoryPack", func(t *testing.T) {
				want := chatMessage{Channel: "world", Text: "gg", Seq: 1 << 40}
				buf, err := p.Pack(7, -1001, nil, &want)
				require.NoError(t, err)
				defer buf.Release()

				info, ok, err := p.UnPack(buf.Bytes(), buf.Len())
				require.NoError(t, err)
				require.True(t, ok)
				defer info.Release()

				assert.EqualValues(t, 7, info.RpcID)
				assert.Equal(t, wantRoute, info.RouteID)
				assert.Equal(t, opChat, info.ProtocolCode)
				assert.False(t, info.IsEmptyBody())

				got, err := info.Message(reg)
				require.NoError(t, err)
				assert.Equal(t, &want, got)
			})
		})
	}
}

func TestPackMessageTooLarge(t *testing.T) {
	network := newTestNetwork(t)
	cfg := DefaultConfig()
	cfg.MaxBodyLength = 4

	for v, p := range testParsers(t, network, cfg) {
		t.Run(v.String(), func(t *testing.T) {
			buf, err := p.Pack(1, 1, nil, wrapperspb.String("hello"))
			require.ErrorIs(t, err, ErrMessageTooLarge)
			assert.False(t, IsFatal(err))
			assert.Nil(t, buf)

			// A body that fits is still accepted afterwards.
			buf, err = p.Pack(1, 1, nil, wrapperspb.String("hi"))
			require.NoError(t, err)
			require.NoError(t, buf.Release())
		})
	}
}

func TestPackErrors(t *testing.T) {
	network := newTestNetwork(t)
	require.NoError(t, network.Registry().Register(99, ProtoBuf, notProto{}))

	for v, p := range testParsers(t, network, DefaultConfig()) {
		t.Run(v.String(), func(t *testing.T) {
			_, err := p.Pack(1, 1, nil, nil)
			assert.ErrorIs(t, err, ErrNilMessage)

			_, err = p.Pack(1, 1, nil, wrapperspb.Int32(3))
			assert.ErrorIs(t, err, ErrUnregisteredMessage)

			_, err = p.Pack(1, 1, nil, &notProto{Value: 1})
			assert.ErrorIs(t, err, ErrInvalidMessage)

			_, err = p.Pack(1, 1, NewBuffer(make([]byte, p.Kind().HeadLength()-1)), nil)
			assert.ErrorIs(t, err, ErrShortFrame)
			assert.False(t, IsFatal(err), "a short outgoing frame only fails the send")
		})
	}
}

func TestPackPatchOnlyTouchesIDs(t *testing.T) {
	network := newTestNetwork(t)
	for v, p := range testParsers(t, network, DefaultConfig()) {
		t.Run(v.String(), func(t *testing.T) {
			buf, err := p.Pack(1, 2, nil, &chatMessage{Channel: "guild", Text: "hello there"})
			require.NoError(t, err)
			defer buf.Release()
			before := bytes.Clone(buf.Bytes())

			buf.Seek(0, io.SeekEnd) // leave the cursor somewhere else
			out, err := p.Pack(0xA1B2C3D4, -7, buf, nil)
			require.NoError(t, err)
			require.Same(t, buf, out)
			assert.Zero(t, out.Position())

			after := out.Bytes()
			require.Len(t, after, len(before))

			patched := func(i int) bool {
				if i >= OuterPacketRpcIDLocation && i < OuterPacketRpcIDLocation+4 {
					return true
				}
				return p.Kind() == Inner && i >= InnerPacketRouteIDLocation && i < InnerPacketHeadLength
			}
			for i := range before {
				if !patched(i) {
					assert.Equalf(t, before[i], after[i], "byte %d changed", i)
				}
			}

			assert.EqualValues(t, 0xA1B2C3D4, binary.LittleEndian.Uint32(after[OuterPacketRpcIDLocation:]))
			if p.Kind() == Inner {
				assert.EqualValues(t, -7, int64(binary.LittleEndian.Uint64(after[InnerPacketRouteIDLocation:])))
			}
		})
	}
}

func TestPackPatchKeepsProtocolCode(t *testing.T) {
	network := newTestNetwork(t)
	for v, p := range testParsers(t, network, DefaultConfig()) {
		t.Run(v.String(), func(t *testing.T) {
			frame := buildFrame(p.Kind(), 4, 0xBEEF, 1, 2, []byte{9, 8, 7, 6})
			buf, err := p.Pack(77, 88, NewBuffer(frame), nil)
			require.NoError(t, err)

			info, ok, err := p.UnPack(buf.Bytes(), buf.Len())
			require.NoError(t, err)
			require.True(t, ok)
			defer info.Release()

			assert.EqualValues(t, 0xBEEF, info.ProtocolCode)
			assert.EqualValues(t, 77, info.RpcID)
			assert.EqualValues(t, 4, info.PacketLength)
			assert.Equal(t, []byte{9, 8, 7, 6}, info.Body())
			if p.Kind() == Inner {
				assert.EqualValues(t, 88, info.RouteID)
			}
		})
	}
}

func TestOuterDecodersAgree(t *testing.T) {
	network := newTestNetwork(t)
	cfg := DefaultConfig()
	cfg.MaxBodyLength = 256
	native := NewOuterBufferPacketParser(network, cfg.OuterLayout())
	webgl := NewOuterWebglBufferPacketParser(network, cfg.OuterLayout())

	rng := rand.New(rand.NewPCG(7, 42))
	for i := 0; i < 2000; i++ {
		count := rng.IntN(300)
		buffer := make([]byte, count+rng.IntN(4))
		for j := range buffer {
			buffer[j] = byte(rng.Uint32())
		}
		if count >= OuterPacketHeadLength && rng.IntN(2) == 0 {
			binary.LittleEndian.PutUint32(buffer, uint32(int32(rng.IntN(count+2)-1)))
		}

		a, okA, errA := native.UnPack(buffer, count)
		b, okB, errB := webgl.UnPack(buffer, count)
		require.Equal(t, okA, okB, "count=%d", count)
		require.Equal(t, errA == nil, errB == nil, "count=%d", count)
		if errA != nil {
			require.Equal(t, errorReason(errA), errorReason(errB))
		}
		if !okA {
			continue
		}
		require.Equal(t, a.PacketLength, b.PacketLength)
		require.Equal(t, a.ProtocolCode, b.ProtocolCode)
		require.Equal(t, a.RpcID, b.RpcID)
		require.Equal(t, a.RouteID, b.RouteID)
		require.Equal(t, a.Frame(), b.Frame())
		require.NoError(t, a.Release())
		require.NoError(t, b.Release())
	}
}

func TestNewParser(t *testing.T) {
	network := newTestNetwork(t)

	p, err := NewParser(VariantOuter, network, DefaultConfig())
	require.NoError(t, err)
	assert.IsType(t, &OuterBufferPacketParser{}, p)

	p, err = NewParser(VariantOuterWebgl, network, DefaultConfig())
	require.NoError(t, err)
	assert.IsType(t, &OuterWebglBufferPacketParser{}, p)
	assert.Equal(t, Outer, p.Kind())

	_, err = NewParser(Variant(9), network, DefaultConfig())
	assert.ErrorIs(t, err, ErrUnsupportedVariant)
	assert.Equal(t, "variant(9)", Variant(9).String())
}

func TestPackInfo(t *testing.T) {
	network := newTestNetwork(t)
	p := NewOuterBufferPacketParser(network, OuterLayout{})

	t.Run("DoubleRelease", func(t *testing.T) {
		frame := buildFrame(Outer, 2, opGreeting, 1, 0, []byte{0x0a, 0x00})
		info, ok, err := p.UnPack(frame, len(frame))
		require.NoError(t, err)
		require.True(t, ok)

		require.NoError(t, info.Release())
		assert.ErrorIs(t, info.Release(), ErrAlreadyReleased)
	})

	t.Run("UnknownOpCode", func(t *testing.T) {
		frame := buildFrame(Outer, 1, 12345, 1, 0, []byte{0})
		info, _, err := p.UnPack(frame, len(frame))
		require.NoError(t, err)
		defer info.Release()

		_, err = info.Message(network.Registry())
		assert.ErrorIs(t, err, ErrUnknownOpCode)
		assert.ErrorIs(t, info.Unmarshal(network.Registry(), &chatMessage{}), ErrUnknownOpCode)
	})

	t.Run("FrameIsCopied", func(t *testing.T) {
		frame := buildFrame(Outer, 2, opGreeting, 1, 0, []byte{0x0a, 0x00})
		info, _, err := p.UnPack(frame, len(frame))
		require.NoError(t, err)
		defer info.Release()

		frame[OuterPacketHeadLength] = 0xff
		assert.Equal(t, []byte{0x0a, 0x00}, info.Body())
	})

	t.Run("Unpooled", func(t *testing.T) {
		info := &PackInfo{Kind: Inner, RpcID: 3}
		info.RentBuffer(InnerPacketHeadLength).Write(make([]byte, InnerPacketHeadLength))
		assert.Nil(t, info.Body())
		assert.True(t, info.IsEmptyBody())
		require.NoError(t, info.Release())
		assert.Nil(t, info.Buffer())
		assert.Zero(t, info.RpcID)
	})
}
