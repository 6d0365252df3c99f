//go:build !client

package packet

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
)

func init() { RegisterSerializer(bsonSerializer{}) }

// bsonSerializer encodes messages as BSON documents. Client builds
// (-tags client) leave it out.
type bsonSerializer struct{}

func (bsonSerializer) Protocol() Protocol { return Bson }

func (bsonSerializer) Serialize(buf *Buffer, msg any) error {
	doc, err := bson.Marshal(msg)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}
	_, err = buf.Write(doc)
	return err
}

func (bsonSerializer) Deserialize(data []byte, dst any) error {
	return bson.Unmarshal(data, dst)
}
