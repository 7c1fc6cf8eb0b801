package bloom

import "context"

// bitSetProvider stores the filter bits.
type bitSetProvider interface {
	// check reports whether every offset is set.
	check(ctx context.Context, offsets []uint) (bool, error)
	set(ctx context.Context, offsets []uint) error
}
