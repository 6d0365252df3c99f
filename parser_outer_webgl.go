package packet

import "io"

// OuterWebglBufferPacketParser frames client-facing traffic for sandboxed
// runtimes. It accepts and rejects exactly what OuterBufferPacketParser does,
// but decodes every header field through a Reader instead of indexing the
// receive buffer.
type OuterWebglBufferPacketParser struct {
	network Network
	layout  OuterLayout
}

var _ Parser = (*OuterWebglBufferPacketParser)(nil)

// NewOuterWebglBufferPacketParser binds a sandboxed outer parser to network.
func NewOuterWebglBufferPacketParser(network Network, layout OuterLayout) *OuterWebglBufferPacketParser {
	return &OuterWebglBufferPacketParser{network: network, layout: layout}
}

func (p *OuterWebglBufferPacketParser) Kind() Kind { return Outer }

func (p *OuterWebglBufferPacketParser) UnPack(buffer []byte, count int) (*PackInfo, bool, error) {
	if err := checkCount(buffer, count); err != nil {
		return nil, false, err
	}
	if count < OuterPacketHeadLength {
		return nil, false, nil
	}

	r, _ := NewReader(NewBuffer(buffer[:count]))

	var length int32
	r.ReadInt32(&length)
	if err := r.Err(); err != nil {
		return nil, false, err
	}
	if err := checkLength(p.layout, length, count); err != nil {
		return nil, false, err
	}

	var protocolCode, rpcID uint32
	r.Seek(ProtocolCodeLocation, io.SeekStart)
	r.ReadUint32(&protocolCode)
	r.Seek(OuterPacketRpcIDLocation, io.SeekStart)
	r.ReadUint32(&rpcID)
	if err := r.Err(); err != nil {
		return nil, false, err
	}

	info := p.network.RentPackInfo(Outer)
	info.PacketLength = length
	info.ProtocolCode = protocolCode
	info.RpcID = rpcID
	info.RentBuffer(count).Write(buffer[:count])
	return info, true, nil
}

func (p *OuterWebglBufferPacketParser) Pack(rpcID uint32, _ int64, buf *Buffer, msg any) (*Buffer, error) {
	if buf != nil {
		return packOuterPatch(p.layout, rpcID, buf)
	}
	return packOuterMessage(p.network, p.layout, rpcID, msg)
}
