package diskbloom

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
)

const (
	zeroFillParts    = 20
	maxZeroFillChunk = 1 << 20
)

// FileReader is a read-only handle to a table file
type FileReader struct {
	file      *os.File
	path      string
	tableSize uint64
}

// FileStore is a read-write handle to a table file.
// Only one writer per file is supported: two handles setting bits in the
// same byte may lose one of the updates.
type FileStore struct {
	FileReader
	mu sync.Mutex
}

// OpenFileStore opens an existing table file for reading only
func OpenFileStore(path string, tableSize uint64) (*FileReader, error) {
	file, openErr := os.Open(path)
	if openErr != nil {
		return nil, errors.Wrapf(openErr, "open table file %q", path)
	}
	return &FileReader{file: file, path: path, tableSize: tableSize}, nil
}

// OpenOrCreateFileStore opens the table file at path for reading and writing.
// A missing file is created and filled with ceil(tableSize/8) zero bytes first.
// An existing file is reused as is: its size and content are not verified.
func OpenOrCreateFileStore(path string, tableSize uint64, hooks *Hooks, logger Logger) (*FileStore, error) {
	if hooks == nil {
		hooks = NewHooks()
	}
	if logger == nil {
		logger = NoOpLogger
	}
	_, statErr := os.Stat(path)
	switch {
	case os.IsNotExist(statErr):
		logger("Creating new file :", path)
		hooks.Before(CreateStore, path, tableSize)
		created, createErr := createZeroed(path, tableSize, hooks)
		hooks.After(CreateStore, createErr, path, tableSize)
		if createErr != nil {
			return nil, createErr
		}
		if !created {
			logger("Using existing file :", path)
		}
	case statErr != nil:
		return nil, errors.Wrapf(statErr, "stat table file %q", path)
	default:
		logger("Using existing file :", path)
	}

	hooks.Before(OpenStore, path)
	file, openErr := os.OpenFile(path, os.O_RDWR, 0)
	hooks.After(OpenStore, openErr, path)
	if openErr != nil {
		return nil, errors.Wrapf(openErr, "open table file %q", path)
	}
	return &FileStore{
		FileReader: FileReader{file: file, path: path, tableSize: tableSize},
	}, nil
}

// createZeroed zero fills a temporary file next to path and links it to path,
// so path never holds a partially filled table.
// It returns false when another constructor linked its table first.
func createZeroed(path string, tableSize uint64, hooks *Hooks) (created bool, err error) {
	tmp, createErr := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if createErr != nil {
		return false, errors.Wrapf(createErr, "create temporary table for %q", path)
	}
	defer func() {
		if removeErr := os.Remove(tmp.Name()); removeErr != nil && !os.IsNotExist(removeErr) && err == nil {
			err = errors.Wrapf(removeErr, "remove temporary table %q", tmp.Name())
		}
	}()

	fillErr := errors.Wrapf(tmp.Chmod(0o644), "chmod temporary table %q", tmp.Name())
	if fillErr == nil {
		fillErr = zeroFill(tmp, tableSize, hooks)
	}
	if closeErr := tmp.Close(); closeErr != nil && fillErr == nil {
		fillErr = errors.Wrapf(closeErr, "close temporary table %q", tmp.Name())
	}
	if fillErr != nil {
		return false, fillErr
	}

	if linkErr := os.Link(tmp.Name(), path); linkErr != nil {
		if os.IsExist(linkErr) {
			return false, nil
		}
		return false, errors.Wrapf(linkErr, "link table file %q", path)
	}
	return true, nil
}

func zeroFill(file *os.File, tableSize uint64, hooks *Hooks) error {
	total := (tableSize + 7) / 8
	zeros := make([]byte, zeroFillChunk(total))
	for written := uint64(0); written < total; {
		n := uint64(len(zeros))
		if rest := total - written; rest < n {
			n = rest
		}
		hooks.Before(ZeroFill, written, n)
		_, writeErr := file.Write(zeros[:n])
		hooks.After(ZeroFill, writeErr, written, n)
		if writeErr != nil {
			return errors.Wrapf(writeErr, "zero fill %q at byte %d", file.Name(), written)
		}
		written += n
	}
	return errors.Wrapf(file.Sync(), "sync %q", file.Name())
}

func zeroFillChunk(totalBytes uint64) uint64 {
	chunk := (totalBytes + zeroFillParts - 1) / zeroFillParts
	if chunk > maxZeroFillChunk {
		chunk = maxZeroFillChunk
	}
	if chunk == 0 {
		chunk = 1
	}
	return chunk
}

func (r *FileReader) Get(index uint64) (bool, error) {
	if err := checkIndex(index, r.tableSize); err != nil {
		return false, errors.Wrapf(err, "get bit %d of %d", index, r.tableSize)
	}
	pos, mask := byteAndMask(index)
	b, readErr := r.readByte(pos)
	if readErr != nil {
		return false, readErr
	}
	return b&mask != 0, nil
}

func (r *FileReader) Len() uint64 {
	return r.tableSize
}

func (r *FileReader) Path() string {
	return r.path
}

func (r *FileReader) Close() error {
	return errors.Wrapf(r.file.Close(), "close table file %q", r.path)
}

func (r *FileReader) readByte(pos int64) (byte, error) {
	var buf [1]byte
	if _, readErr := r.file.ReadAt(buf[:], pos); readErr != nil {
		return 0, errors.Wrapf(readErr, "read byte %d of %q", pos, r.path)
	}
	return buf[0], nil
}

func (s *FileStore) Set(index uint64) error {
	if err := checkIndex(index, s.tableSize); err != nil {
		return errors.Wrapf(err, "set bit %d of %d", index, s.tableSize)
	}
	pos, mask := byteAndMask(index)

	s.mu.Lock()
	defer s.mu.Unlock()
	b, readErr := s.readByte(pos)
	if readErr != nil {
		return readErr
	}
	if b&mask != 0 {
		return nil
	}
	if _, writeErr := s.file.WriteAt([]byte{b | mask}, pos); writeErr != nil {
		return errors.Wrapf(writeErr, "write byte %d of %q", pos, s.path)
	}
	return nil
}

// Sync flushes written bits to stable storage
func (s *FileStore) Sync() error {
	return errors.Wrapf(s.file.Sync(), "sync table file %q", s.path)
}

var (
	_ BitReader = &FileReader{}
	_ BitStore  = &FileStore{}
)
