package packet

import (
	"fmt"
	"reflect"

	"github.com/puzpuzpuz/xsync/v4"
)

// MessageType binds a Go type to its op-code and serialization protocol.
type MessageType struct {
	OpCode     uint32
	Protocol   Protocol
	Type       reflect.Type // pointer indirection stripped
	Serializer Serializer
}

// New returns a pointer to a fresh zero value of the message type.
func (t *MessageType) New() any {
	return reflect.New(t.Type).Interface()
}

// Registry maps message types to op-codes and back. Lookups happen on every
// Pack and on every body decode, so both directions are concurrent maps and
// never take a lock.
type Registry struct {
	byType   *xsync.Map[reflect.Type, *MessageType]
	byOpCode *xsync.Map[uint32, *MessageType]
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byType:   xsync.NewMap[reflect.Type, *MessageType](),
		byOpCode: xsync.NewMap[uint32, *MessageType](),
	}
}

// Register binds prototype's type to opCode, serialized with protocol.
// Values and pointers of the same type resolve to the same binding.
func (r *Registry) Register(opCode uint32, protocol Protocol, prototype any) error {
	if prototype == nil {
		return ErrNilMessage
	}
	serializer, err := SerializerFor(protocol)
	if err != nil {
		return err
	}
	mt := &MessageType{
		OpCode:     opCode,
		Protocol:   protocol,
		Type:       baseType(reflect.TypeOf(prototype)),
		Serializer: serializer,
	}

	if prev, loaded := r.byOpCode.LoadOrStore(opCode, mt); loaded {
		if prev.Type != mt.Type {
			return fmt.Errorf("%w: %d is bound to %s", ErrDuplicateOpCode, opCode, prev.Type)
		}
		// A concurrent registration of the same binding may not have reached byType yet.
		r.byType.LoadOrStore(prev.Type, prev)
		return nil
	}
	if prev, loaded := r.byType.LoadOrStore(mt.Type, mt); loaded && prev.OpCode != opCode {
		r.byOpCode.Delete(opCode)
		return fmt.Errorf("%w: %s is bound to %d", ErrDuplicateOpCode, mt.Type, prev.OpCode)
	}
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(opCode uint32, protocol Protocol, prototype any) {
	if err := r.Register(opCode, protocol, prototype); err != nil {
		panic(err)
	}
}

// Resolve returns the binding of msg's runtime type.
func (r *Registry) Resolve(msg any) (*MessageType, error) {
	if msg == nil {
		return nil, ErrNilMessage
	}
	t := baseType(reflect.TypeOf(msg))
	if mt, ok := r.byType.Load(t); ok {
		return mt, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnregisteredMessage, t)
}

// OpCode returns the op-code of msg's runtime type.
func (r *Registry) OpCode(msg any) (uint32, error) {
	mt, err := r.Resolve(msg)
	if err != nil {
		return 0, err
	}
	return mt.OpCode, nil
}

// Lookup returns the binding of an op-code.
func (r *Registry) Lookup(opCode uint32) (*MessageType, bool) {
	return r.byOpCode.Load(opCode)
}

// Serialize appends the body of msg at buf's position and returns the number
// of bytes written.
func (r *Registry) Serialize(msg any, buf *Buffer) (int, error) {
	mt, err := r.Resolve(msg)
	if err != nil {
		return 0, err
	}
	start := buf.Position()
	if err := mt.Serializer.Serialize(buf, msg); err != nil {
		return 0, fmt.Errorf("packet: serialize %s as %s: %w", mt.Type, mt.Protocol, err)
	}
	return buf.Position() - start, nil
}

// Deserialize decodes data as the message type bound to opCode and returns a
// pointer to the new value.
func (r *Registry) Deserialize(opCode uint32, data []byte) (any, error) {
	mt, ok := r.Lookup(opCode)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownOpCode, opCode)
	}
	msg := mt.New()
	if err := mt.Serializer.Deserialize(data, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func baseType(t reflect.Type) reflect.Type {
	if t.Kind() == reflect.Pointer {
		return t.Elem()
	}
	return t
}
