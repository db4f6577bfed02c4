package diskbloom

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type FileStoreSuite struct {
	path string
	suite.Suite
}

func (st *FileStoreSuite) SetupTest() {
	st.path = filepath.Join(st.T().TempDir(), "table.bin")
}

func (st *FileStoreSuite) TestBitAddressing() {
	store := st.create(64)

	st.Require().NoError(store.Set(5))
	for i := uint64(0); i < 64; i++ {
		isSet, err := store.Get(i)
		st.Require().NoErrorf(err, "get bit %d", i)
		st.Require().Equalf(i == 5, isSet, "unexpected state of bit %d", i)
	}

	_, err := store.Get(64)
	st.Require().Error(err)
	st.Require().True(IsOutOfRange(err), "out of range error expected")

	st.Require().True(IsOutOfRange(store.Set(64)), "out of range error expected on set")
}

func (st *FileStoreSuite) TestLayout() {
	store := st.create(24)
	st.Require().NoError(store.Set(0))
	st.Require().NoError(store.Set(9))
	st.Require().NoError(store.Set(23))

	st.Require().Equal([]byte{0x01, 0x02, 0x80}, st.content())
}

func (st *FileStoreSuite) TestSetIsIdempotent() {
	store := st.create(16)
	st.Require().NoError(store.Set(3))
	st.Require().NoError(store.Set(10))
	before := st.content()

	st.Require().NoError(store.Set(3))
	st.Require().NoError(store.Set(10))
	st.Require().Equal(before, st.content())
}

func (st *FileStoreSuite) TestZeroFillSize() {
	for _, bits := range []uint64{0, 1, 7, 8, 9, 159, 160, 100_003} {
		path := filepath.Join(st.T().TempDir(), "sized.bin")
		store, err := OpenOrCreateFileStore(path, bits, nil, nil)
		st.Require().NoErrorf(err, "create table of %d bits", bits)
		st.Require().NoError(store.Close())

		content, readErr := os.ReadFile(path)
		st.Require().NoError(readErr)
		st.Require().Lenf(content, int((bits+7)/8), "file size for %d bits", bits)
		for pos, b := range content {
			st.Require().Zerof(b, "byte %d expected to be zero", pos)
		}
	}
}

func (st *FileStoreSuite) TestExistingFileIsReused() {
	store := st.create(32)
	st.Require().NoError(store.Set(17))
	st.Require().NoError(store.Close())

	reopened := st.create(32)
	isSet, err := reopened.Get(17)
	st.Require().NoError(err)
	st.Require().True(isSet, "bit set before reopen expected to survive")
}

func (st *FileStoreSuite) TestReaderSeesWriterBits() {
	store := st.create(40)
	reader, err := OpenFileStore(st.path, 40)
	st.Require().NoError(err)
	st.T().Cleanup(func() { _ = reader.Close() })

	isSet, err := reader.Get(33)
	st.Require().NoError(err)
	st.Require().False(isSet)

	st.Require().NoError(store.Set(33))
	isSet, err = reader.Get(33)
	st.Require().NoError(err)
	st.Require().True(isSet)
	st.Require().Equal(st.path, reader.Path())
}

func (st *FileStoreSuite) TestReaderRequiresFile() {
	_, err := OpenFileStore(st.path, 8)
	st.Require().Error(err)
	st.Require().True(os.IsNotExist(errors.Cause(err)), "not exist error expected, got %v", err)
}

func (st *FileStoreSuite) TestTruncatedFileFailsOnRead() {
	st.Require().NoError(os.WriteFile(st.path, []byte{0xff}, 0o644))
	store := st.create(64)

	isSet, err := store.Get(7)
	st.Require().NoError(err)
	st.Require().True(isSet)

	_, err = store.Get(40)
	st.Require().Error(err, "read past the end of a short file expected to fail")
	st.Require().False(IsOutOfRange(err))
}

func (st *FileStoreSuite) TestConcurrentCreation() {
	const (
		handles   = 12
		tableSize = uint64(40_000_000)
	)
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		errBatch *multierror.Error
		stores   = make([]*FileStore, handles)
	)
	for h := 0; h < handles; h++ {
		wg.Add(1)
		go func(h int) {
			defer wg.Done()
			store, err := OpenOrCreateFileStore(st.path, tableSize, nil, nil)
			if err == nil {
				stores[h] = store
				err = checkFreshHandle(store, uint64(h)*1_000_003)
			}
			mu.Lock()
			errBatch = multierror.Append(errBatch, err)
			mu.Unlock()
		}(h)
	}
	wg.Wait()
	st.Require().NoError(errBatch.ErrorOrNil())

	for h, store := range stores {
		isSet, err := store.Get(uint64(h) * 1_000_003)
		st.Require().NoError(err)
		st.Require().Truef(isSet, "bit set by handle %d was lost", h)
		st.Require().NoError(store.Close())
	}

	info, err := os.Stat(st.path)
	st.Require().NoError(err)
	st.Require().EqualValues(tableSize/8, info.Size())

	entries, err := os.ReadDir(filepath.Dir(st.path))
	st.Require().NoError(err)
	st.Require().Len(entries, 1, "temporary tables expected to be removed")
}

// checkFreshHandle reads the last byte of the table and sets one bit
func checkFreshHandle(store *FileStore, index uint64) error {
	if _, err := store.Get(store.Len() - 1); err != nil {
		return err
	}
	return store.Set(index)
}

func (st *FileStoreSuite) create(tableSize uint64) *FileStore {
	st.T().Helper()
	store, err := OpenOrCreateFileStore(st.path, tableSize, nil, nil)
	st.Require().NoError(err, "No error expected on store creation")
	st.T().Cleanup(func() { _ = store.Close() })
	return store
}

func (st *FileStoreSuite) content() []byte {
	st.T().Helper()
	content, err := os.ReadFile(st.path)
	st.Require().NoError(err)
	return content
}

func TestZeroFillChunk(t *testing.T) {
	cases := map[uint64]uint64{
		0:         1,
		19:        1,
		20:        1,
		400:       20,
		401:       21,
		100 << 20: maxZeroFillChunk,
	}
	for total, expected := range cases {
		if got := zeroFillChunk(total); got != expected {
			t.Errorf("zeroFillChunk(%d) = %d, expected %d", total, got, expected)
		}
	}
}

func TestFileStoreSuite(t *testing.T) {
	suite.Run(t, &FileStoreSuite{})
}
