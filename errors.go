package packet

import "errors"

var (
	// ErrNilIO indicates that NewReader/NewWriter was called with an nil interface
	ErrNilIO = errors.New("packet: NewReader/NewWriter called with a nil io.ReadSeeker/io.Writer")

	// ErrInconsistentLength indicates that UnPack was called with a count larger
	// than the buffer it describes. This is always a caller bug.
	ErrInconsistentLength = errors.New("packet: count exceeds buffer length")

	// ErrFrameOversized indicates that the length field of a received frame
	// exceeds the configured maximum body length.
	ErrFrameOversized = errors.New("packet: received frame exceeds maximum length")

	// ErrFrameTruncated indicates that the length field of a received frame
	// claims more bytes than were delivered.
	ErrFrameTruncated = errors.New("packet: received frame is truncated")

	// ErrShortFrame indicates that a pre-built frame handed to Pack is too short
	// to hold its header. Only the send is rejected.
	ErrShortFrame = errors.New("packet: frame shorter than its header")

	// ErrMessageTooLarge indicates that a serialized message body exceeds the
	// configured maximum body length. Only the send is rejected.
	ErrMessageTooLarge = errors.New("packet: message body exceeds maximum length")

	// ErrNilMessage indicates Pack was called with neither a buffer nor a message.
	ErrNilMessage = errors.New("packet: Pack called with a nil buffer and a nil message")

	// ErrUnregisteredMessage indicates the message type has no op-code in the registry.
	ErrUnregisteredMessage = errors.New("packet: message type is not registered")

	// ErrDuplicateOpCode indicates an op-code or message type registered twice
	// with a different binding.
	ErrDuplicateOpCode = errors.New("packet: op-code already registered")

	// ErrUnknownOpCode indicates an op-code with no registered message type.
	ErrUnknownOpCode = errors.New("packet: unknown op-code")

	// ErrUnsupportedProtocol indicates a serialization protocol that is not
	// available to the parser or not linked into this build.
	ErrUnsupportedProtocol = errors.New("packet: unsupported serialization protocol")

	// ErrInvalidMessage indicates a message value that its serializer cannot handle.
	ErrInvalidMessage = errors.New("packet: message does not match its serializer")

	// ErrInvalidSeek indicates a seek was attempted to a negative position.
	ErrInvalidSeek = errors.New("packet: seek to a invalid position")

	// ErrInvalidWhence indicates that an invalid 'whence' parameter was provided to a Seek operation.
	ErrInvalidWhence = errors.New("packet: unsupported whence")

	// ErrAlreadyReleased indicates a buffer or descriptor was released more
	// times than it was owned.
	ErrAlreadyReleased = errors.New("packet: already released")

	// ErrUnsupportedVariant indicates a parser variant unknown to, or not linked into, this build.
	ErrUnsupportedVariant = errors.New("packet: unsupported parser variant")

	// ErrInvalidLayout indicates a layout whose field offsets do not fit its header.
	ErrInvalidLayout = errors.New("packet: invalid packet layout")

	// ErrSessionClosed indicates an operation on a session that was already torn down.
	ErrSessionClosed = errors.New("packet: session closed")
)

// IsFatal reports whether err terminates the connection it was raised on.
// Oversized, truncated and inconsistent frames are fatal; send-side failures
// such as ErrMessageTooLarge or ErrShortFrame only fail that send.
func IsFatal(err error) bool {
	return errors.Is(err, ErrInconsistentLength) ||
		errors.Is(err, ErrFrameOversized) ||
		errors.Is(err, ErrFrameTruncated)
}
