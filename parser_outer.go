package packet

import (
	"encoding/binary"
	"io"
)

// OuterBufferPacketParser frames client-facing traffic on runtimes that can
// read header fields in place. The header has no route id; the routeID
// argument of Pack is ignored.
type OuterBufferPacketParser struct {
	network Network
	layout  OuterLayout
}

var _ Parser = (*OuterBufferPacketParser)(nil)

// NewOuterBufferPacketParser binds an outer parser to network.
func NewOuterBufferPacketParser(network Network, layout OuterLayout) *OuterBufferPacketParser {
	return &OuterBufferPacketParser{network: network, layout: layout}
}

func (p *OuterBufferPacketParser) Kind() Kind { return Outer }

// UnPack reads the header fields straight from their fixed offsets.
func (p *OuterBufferPacketParser) UnPack(buffer []byte, count int) (*PackInfo, bool, error) {
	if err := checkCount(buffer, count); err != nil {
		return nil, false, err
	}
	if count < OuterPacketHeadLength {
		return nil, false, nil
	}

	frame := buffer[:count]
	_ = frame[OuterPacketHeadLength-1] // BCE hint

	length := int32(binary.LittleEndian.Uint32(frame))
	if err := checkLength(p.layout, length, count); err != nil {
		return nil, false, err
	}

	info := p.network.RentPackInfo(Outer)
	info.PacketLength = length
	info.ProtocolCode = binary.LittleEndian.Uint32(frame[ProtocolCodeLocation:])
	info.RpcID = binary.LittleEndian.Uint32(frame[OuterPacketRpcIDLocation:])
	info.RentBuffer(count).Write(frame)
	return info, true, nil
}

func (p *OuterBufferPacketParser) Pack(rpcID uint32, _ int64, buf *Buffer, msg any) (*Buffer, error) {
	if buf != nil {
		return packOuterPatch(p.layout, rpcID, buf)
	}
	return packOuterMessage(p.network, p.layout, rpcID, msg)
}

// packOuterPatch and packOuterMessage are shared by both outer parsers; the
// two only differ in how they decode.

func packOuterPatch(l OuterLayout, rpcID uint32, buf *Buffer) (*Buffer, error) {
	if err := checkPatch(l, buf); err != nil {
		return nil, err
	}
	putField(buf.B, OuterPacketRpcIDLocation, rpcID)
	buf.Seek(0, io.SeekStart)
	return buf, nil
}

func packOuterMessage(network Network, l OuterLayout, rpcID uint32, msg any) (*Buffer, error) {
	buf, mt, length, err := serializeBody(network, l, msg)
	if err != nil {
		return nil, err
	}

	buf.Seek(0, io.SeekStart)
	w, _ := NewWriter(buf)
	w.WriteInt32(length)
	w.WriteUint32(mt.OpCode)
	w.WriteUint32(rpcID)
	if _, err := w.Result(); err != nil {
		_ = buf.Release()
		return nil, err
	}
	buf.Seek(0, io.SeekStart)
	return buf, nil
}
