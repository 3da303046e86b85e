package bloom

import (
	bitsbloom "github.com/bits-and-blooms/bloom/v3"
	"github.com/haukened/callguard/internal/guard/repos/denylist"
)

// MinCapacity is the smallest snapshot a filter is sized for. Authority lists
// are short, and a floor keeps a near-empty seed from producing a filter that
// saturates on the first refresh.
const MinCapacity = 64

// sizer implements denylist.BloomSizer on top of bitsbloom.EstimateParameters.
type sizer struct{}

// NewSizer returns a BloomSizer implementation.
func NewSizer() denylist.BloomSizer { return sizer{} }

func (sizer) Size(n uint64, p float64) (uint64, uint8) {
	if n < MinCapacity {
		n = MinCapacity
	}
	if !(p > 0 && p < 1) {
		p = denylist.DefaultFPRate
	}
	m, k := bitsbloom.EstimateParameters(uint(n), p)
	return uint64(max(m, 1)), uint8(min(max(k, 1), 255))
}
