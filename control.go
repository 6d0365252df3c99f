package packet

import "fmt"

// ChannelHeader is the single control byte the datagram transport puts in
// front of its packets. Parsers only ever see the payload of ReceiveData
// packets; the rest belong to the transport's connection handshake.
type ChannelHeader byte

const (
	// None is the zero value and never appears on the wire.
	None ChannelHeader = 0x00
	// RequestConnection opens the handshake from the client.
	RequestConnection ChannelHeader = 0x01
	// WaitConfirmConnection is the server's reply carrying the assigned channel id.
	WaitConfirmConnection ChannelHeader = 0x02
	// ConfirmConnection completes the handshake from the client.
	ConfirmConnection ChannelHeader = 0x03
	// RepeatChannelID tells the client its channel id is already taken.
	RepeatChannelID ChannelHeader = 0x04
	// ReceiveData prefixes a payload that carries one frame.
	ReceiveData ChannelHeader = 0x06
	// Disconnect closes the channel from either side.
	Disconnect ChannelHeader = 0x07
)

// Valid reports whether h is a known control code other than None.
func (h ChannelHeader) Valid() bool {
	switch h {
	case RequestConnection, WaitConfirmConnection, ConfirmConnection, RepeatChannelID, ReceiveData, Disconnect:
		return true
	}
	return false
}

func (h ChannelHeader) String() string {
	switch h {
	case None:
		return "none"
	case RequestConnection:
		return "request-connection"
	case WaitConfirmConnection:
		return "wait-confirm-connection"
	case ConfirmConnection:
		return "confirm-connection"
	case RepeatChannelID:
		return "repeat-channel-id"
	case ReceiveData:
		return "receive-data"
	case Disconnect:
		return "disconnect"
	default:
		return fmt.Sprintf("channel-header(0x%02x)", byte(h))
	}
}
