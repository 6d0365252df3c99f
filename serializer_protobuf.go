package packet

import (
	"fmt"

	"google.golang.org/protobuf/proto"
)

func init() { RegisterSerializer(protoBufSerializer{}) }

// protoBufSerializer marshals proto.Message values. Messages whose fields are
// all defaults produce no output, which is what the empty body length exists for.
type protoBufSerializer struct{}

func (protoBufSerializer) Protocol() Protocol { return ProtoBuf }

func (protoBufSerializer) Serialize(buf *Buffer, msg any) error {
	m, ok := msg.(proto.Message)
	if !ok {
		return fmt.Errorf("%w: %T is not a proto.Message", ErrInvalidMessage, msg)
	}
	out, err := proto.Marshal(m)
	if err != nil {
		return err
	}
	_, err = buf.Write(out)
	return err
}

func (protoBufSerializer) Deserialize(data []byte, dst any) error {
	m, ok := dst.(proto.Message)
	if !ok {
		return fmt.Errorf("%w: %T is not a proto.Message", ErrInvalidMessage, dst)
	}
	return proto.Unmarshal(data, m)
}
