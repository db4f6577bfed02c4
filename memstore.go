package diskbloom

import (
	"encoding/binary"
	"io"
	"sync"

	"github.com/bits-and-blooms/bitset"
	"github.com/pkg/errors"
)

// MemoryStore keeps the table in process memory
type MemoryStore struct {
	bits      *bitset.BitSet
	tableSize uint64
	mutex     *sync.RWMutex
}

func NewMemoryStore(tableSize uint64) *MemoryStore {
	return &MemoryStore{
		bits:      bitset.New(uint(tableSize)),
		tableSize: tableSize,
		mutex:     &sync.RWMutex{},
	}
}

// ReadMemoryStore loads a table in the file layout from stream
func ReadMemoryStore(stream io.Reader, tableSize uint64) (*MemoryStore, error) {
	data := make([]byte, (tableSize+63)/64*8)
	if _, readErr := io.ReadFull(stream, data[:(tableSize+7)/8]); readErr != nil {
		return nil, errors.Wrap(readErr, "read table")
	}
	words := make([]uint64, len(data)/8)
	for i := range words {
		words[i] = binary.LittleEndian.Uint64(data[i*8:])
	}
	return &MemoryStore{
		bits:      bitset.From(words),
		tableSize: tableSize,
		mutex:     &sync.RWMutex{},
	}, nil
}

func (m *MemoryStore) Get(index uint64) (bool, error) {
	if err := checkIndex(index, m.tableSize); err != nil {
		return false, errors.Wrapf(err, "get bit %d of %d", index, m.tableSize)
	}
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.bits.Test(uint(index)), nil
}

func (m *MemoryStore) Set(index uint64) error {
	if err := checkIndex(index, m.tableSize); err != nil {
		return errors.Wrapf(err, "set bit %d of %d", index, m.tableSize)
	}
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.bits.Set(uint(index))
	return nil
}

func (m *MemoryStore) Len() uint64 {
	return m.tableSize
}

// Count returns the number of set bits
func (m *MemoryStore) Count() uint64 {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return uint64(m.bits.Count())
}

// WriteTo writes the table in the file layout, so it can be opened with OpenFileStore
func (m *MemoryStore) WriteTo(stream io.Writer) (int64, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	data := make([]byte, 0, (m.tableSize+63)/64*8)
	for _, word := range m.bits.Words() {
		data = binary.LittleEndian.AppendUint64(data, word)
	}
	data = append(data, make([]byte, cap(data)-len(data))...)
	n, writeErr := stream.Write(data[:(m.tableSize+7)/8])
	return int64(n), errors.Wrap(writeErr, "write table")
}

func (m *MemoryStore) Close() error {
	return nil
}

var _ BitStore = &MemoryStore{}
