package packet

import (
	"fmt"

	"github.com/puzpuzpuz/xsync/v4"
)

// Protocol identifies the serialization codec of a message type.
type Protocol uint8

const (
	// ProtoBuf messages are google.golang.org/protobuf messages. A message
	// whose fields all hold their default values serializes to zero bytes.
	ProtoBuf Protocol = iota + 1
	// MemoryPack messages are encoded as MessagePack.
	MemoryPack
	// Bson messages are encoded as BSON documents. Only server builds link it.
	Bson
)

func (p Protocol) String() string {
	switch p {
	case ProtoBuf:
		return "protobuf"
	case MemoryPack:
		return "memorypack"
	case Bson:
		return "bson"
	default:
		return fmt.Sprintf("protocol(%d)", uint8(p))
	}
}

// Serializer writes message bodies into frame buffers and reads them back.
// The frame codec does not care how a body is produced; it only measures how
// many bytes the serializer appended.
type Serializer interface {
	// Protocol returns the codec kind this serializer implements.
	Protocol() Protocol
	// Serialize appends the encoding of msg at the buffer's position.
	Serialize(buf *Buffer, msg any) error
	// Deserialize decodes data into dst, which must be a pointer.
	Deserialize(data []byte, dst any) error
}

// serializers holds the codecs linked into this build. Build-specific files
// register theirs from init.
var serializers = xsync.NewMap[Protocol, Serializer]()

// RegisterSerializer makes s available to every Registry. A later
// registration for the same protocol replaces the earlier one.
func RegisterSerializer(s Serializer) {
	serializers.Store(s.Protocol(), s)
}

// SerializerFor returns the serializer linked for p.
func SerializerFor(p Protocol) (Serializer, error) {
	if s, ok := serializers.Load(p); ok {
		return s, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedProtocol, p)
}
