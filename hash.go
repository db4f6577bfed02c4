package diskbloom

import (
	"github.com/bits-and-blooms/bloom/v3"
	"github.com/dchest/siphash"
)

type HashScheme interface {
	// Locations returns n bit indexes for key, each below tableSize.
	// The result must depend on key, n and tableSize only.
	Locations(key []byte, n uint32, tableSize uint64) []uint64
}

// DoubleHash extends two base hashes into the i-th derived hash.
// The result is not reduced; callers take it modulo the table size.
func DoubleHash(hash1, hash2 uint64, i uint32) uint64 {
	switch i {
	case 0:
		return hash1
	case 1:
		return hash2
	default:
		return hash1 + uint64(i)*hash2
	}
}

// LegacyKeys are the SipHash keys of the two base hashers that existing table files were written with
var LegacyKeys = [2][2]uint64{
	{43, 44},
	{45, 46},
}

// strHashTerminator is appended to every key before hashing,
// matching how tables written by earlier releases hashed string keys.
const strHashTerminator = 0xff

// SipHashScheme derives indexes from two SipHash-2-4 hashers with distinct keys
type SipHashScheme struct {
	Keys [2][2]uint64
}

func NewSipHashScheme() *SipHashScheme {
	return &SipHashScheme{Keys: LegacyKeys}
}

// BaseHashes returns the outputs of both hashers for key
func (s *SipHashScheme) BaseHashes(key []byte) (hash1, hash2 uint64) {
	data := make([]byte, len(key)+1)
	copy(data, key)
	data[len(key)] = strHashTerminator
	hash1 = siphash.Hash(s.Keys[0][0], s.Keys[0][1], data)
	hash2 = siphash.Hash(s.Keys[1][0], s.Keys[1][1], data)
	return hash1, hash2
}

func (s *SipHashScheme) Locations(key []byte, n uint32, tableSize uint64) []uint64 {
	hash1, hash2 := s.BaseHashes(key)
	locations := make([]uint64, n)
	for i := uint32(0); i < n; i++ {
		locations[i] = DoubleHash(hash1, hash2, i) % tableSize
	}
	return locations
}

// LocationsScheme sets the same bits as an in-memory bloom.BloomFilter
// built with bloom.New(tableSize, n)
type LocationsScheme struct{}

func (LocationsScheme) Locations(key []byte, n uint32, tableSize uint64) []uint64 {
	locations := bloom.Locations(key, uint(n))
	for idx, l := range locations {
		locations[idx] = l % tableSize
	}
	return locations
}

var (
	_ HashScheme = &SipHashScheme{}
	_ HashScheme = LocationsScheme{}
)
