package multipart

import (
	"fmt"

	"github.com/input-output-hk/catalyst-forge-libs/aws/multipart/errors"
)

// Range is an inclusive byte range [Start, End] of the payload.
type Range struct {
	Start int64
	End   int64
}

// Size returns the number of bytes covered by the range.
func (r Range) Size() int64 {
	return r.End - r.Start + 1
}

// Partition splits a payload of length bytes into ceil(length/partSize)
// contiguous ranges. Every range but the last holds exactly partSize bytes;
// the last holds the remainder. Range i is part number i+1.
func Partition(length, partSize int64) ([]Range, error) {
	if length < 1 {
		return nil, errors.NewError(errors.KindInvalidInput, "partition", errors.ErrInvalidInput).
			WithMessage("payload cannot be empty")
	}
	if partSize < 1 {
		return nil, errors.NewError(errors.KindInvalidInput, "partition", errors.ErrInvalidInput).
			WithMessage(fmt.Sprintf("part size must be positive, got %d", partSize))
	}

	count := length / partSize
	if length%partSize != 0 {
		count++
	}
	ranges := make([]Range, 0, count)
	for i := int64(0); i < count; i++ {
		start := i * partSize
		size := min(partSize, length-start)
		ranges = append(ranges, Range{Start: start, End: start + size - 1})
	}
	return ranges, nil
}
