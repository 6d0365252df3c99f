package packet

import "github.com/vmihailenco/msgpack/v5"

func init() { RegisterSerializer(memoryPackSerializer{}) }

// memoryPackSerializer encodes messages as MessagePack. Encoders are pooled
// by the msgpack package and write directly into the frame buffer.
type memoryPackSerializer struct{}

func (memoryPackSerializer) Protocol() Protocol { return MemoryPack }

func (memoryPackSerializer) Serialize(buf *Buffer, msg any) error {
	enc := msgpack.GetEncoder()
	defer msgpack.PutEncoder(enc)
	enc.Reset(buf)
	return enc.Encode(msg)
}

func (memoryPackSerializer) Deserialize(data []byte, dst any) error {
	return msgpack.Unmarshal(data, dst)
}
