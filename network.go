package packet

// Network is the transport context a parser is bound to. It hands out pooled
// buffers for outgoing frames and pooled descriptors for incoming ones, and
// knows the message registry. Implementations must be safe for concurrent use.
type Network interface {
	RentBuffer() *Buffer
	RentPackInfo(kind Kind) *PackInfo
	Registry() *Registry
}

// PooledNetwork is the default Network, backed by sync.Pool.
type PooledNetwork struct {
	buffers  *BufferPool
	infos    *packInfoPool
	registry *Registry
}

var _ Network = (*PooledNetwork)(nil)

// NewNetwork creates a pooled transport context. Buffers start with
// cfg.BufferSize bytes of capacity.
func NewNetwork(cfg Config, registry *Registry) *PooledNetwork {
	if registry == nil {
		registry = NewRegistry()
	}
	buffers := NewBufferPool(cfg.BufferSize)
	return &PooledNetwork{
		buffers:  buffers,
		infos:    newPackInfoPool(buffers),
		registry: registry,
	}
}

func (n *PooledNetwork) RentBuffer() *Buffer              { return n.buffers.Rent() }
func (n *PooledNetwork) RentPackInfo(kind Kind) *PackInfo { return n.infos.rent(kind) }
func (n *PooledNetwork) Registry() *Registry              { return n.registry }
