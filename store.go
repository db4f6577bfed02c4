package diskbloom

type BitReader interface {
	// Get returns true if the bit at index is set.
	// Indexes at or above Len are rejected with ErrIndexOutOfRange
	Get(index uint64) (bool, error)
	// Len returns the table size in bits
	Len() uint64
	Close() error
}

type BitStore interface {
	BitReader
	// Set sets the bit at index to 1. Setting an already set bit is a no-op
	Set(index uint64) error
}

// byteAndMask returns the byte holding the bit at index and the mask selecting it.
// Bits are stored least significant first inside a byte.
func byteAndMask(index uint64) (int64, byte) {
	return int64(index / 8), byte(1) << (index % 8)
}

func checkIndex(index, tableSize uint64) error {
	if index >= tableSize {
		return ErrIndexOutOfRange
	}
	return nil
}
