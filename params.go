package diskbloom

import (
	"math"

	"github.com/pkg/errors"
)

type FilterParams struct {
	Items     uint64
	ErrorRate float64
}

func (fp FilterParams) Validate() error {
	if fp.Items == 0 {
		return errors.Wrap(ErrInvalidParams, "items count must be positive")
	}
	if !(fp.ErrorRate > 0 && fp.ErrorRate < 1) {
		return errors.Wrapf(ErrInvalidParams, "error rate %v is outside (0, 1)", fp.ErrorRate)
	}
	return nil
}

// HashesMemSize returns the number of hash functions and the bits reserved per item
func (fp FilterParams) HashesMemSize() (hashesNumber uint32, bitsPerItem uint64) {
	return CalculateHashesMemSize(fp.ErrorRate)
}

// TableSize is the number of bits in the underlying table
func (fp FilterParams) TableSize() uint64 {
	_, bitsPerItem := fp.HashesMemSize()
	return bitsPerItem * fp.Items
}

// SpaceMB is the table size in mebibytes, as reported on filter creation
func (fp FilterParams) SpaceMB() float64 {
	return float64(fp.TableSize()) / 8 / 1024 / 1024
}

// CalculateHashesMemSize derives the optimal hash count and bits per item for errorRate.
// See https://en.wikipedia.org/wiki/Bloom_filter#Optimal_number_of_hash_functions
func CalculateHashesMemSize(errorRate float64) (hashesNumber uint32, bitsPerItem uint64) {
	log2 := math.Log2(errorRate)
	hashesNumber = uint32(math.Ceil(-log2))
	bitsPerItem = uint64(math.Ceil(-1.44 * log2))
	return hashesNumber, bitsPerItem
}
