package indexer

import "fmt"

// BlockRange is an inclusive range of block heights.
type BlockRange struct {
	From uint64
	To   uint64
}

func (r BlockRange) Len() uint64 {
	if r.To < r.From {
		return 0
	}
	return r.To - r.From + 1
}

// After trims r to the blocks strictly above height. It reports false when
// nothing is left.
func (r BlockRange) After(height uint64) (BlockRange, bool) {
	if height >= r.To {
		return BlockRange{}, false
	}
	if height >= r.From {
		r.From = height + 1
	}
	return r, true
}

// Split cuts r into consecutive ranges of at most size blocks.
func (r BlockRange) Split(size uint64) ([]BlockRange, error) {
	if size == 0 {
		return nil, fmt.Errorf("batch size must be greater than zero")
	}
	if r.To < r.From {
		return nil, fmt.Errorf("to block must be >= from block")
	}

	out := make([]BlockRange, 0, (r.Len()+size-1)/size)
	for start := r.From; ; start += size {
		if r.To-start < size {
			return append(out, BlockRange{From: start, To: r.To}), nil
		}
		out = append(out, BlockRange{From: start, To: start + size - 1})
	}
}

// SplitRange splits [from, to] into batches of batchSize blocks.
func SplitRange(from, to, batchSize uint64) ([]BlockRange, error) {
	return BlockRange{From: from, To: to}.Split(batchSize)
}
