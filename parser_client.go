//go:build client

package packet

import "fmt"

// Client builds only talk to servers over outer frames.
func newInnerParser(Network, InnerLayout) (Parser, error) {
	return nil, fmt.Errorf("%w: %s requires a server build", ErrUnsupportedVariant, VariantInner)
}
