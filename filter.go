package diskbloom

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// Filter answers membership queries. It never modifies the table,
// so any number of Filters may share one table.
type Filter struct {
	params       FilterParams
	hashesNumber uint32
	bitsPerItem  uint64
	tableSize    uint64

	reader BitReader
	scheme HashScheme
	hooks  *Hooks
	logger Logger
}

// WritableFilter adds keys to the table.
// At most one WritableFilter per table may exist at a time.
type WritableFilter struct {
	Filter
	store BitStore
}

// New opens the table file at path for writing, creating it if it does not exist.
// nItems and errorRate must be the same for every handle of one file.
func New(nItems uint64, errorRate float64, path string, opts ...Option) (*WritableFilter, error) {
	params := FilterParams{Items: nItems, ErrorRate: errorRate}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	o := buildOptions(opts)
	logParams(o.logger, params)
	store, openErr := OpenOrCreateFileStore(path, params.TableSize(), o.hooks, o.logger)
	if openErr != nil {
		return nil, openErr
	}
	return newWritable(params, store, o)
}

// Open opens the existing table file at path for membership queries only
func Open(nItems uint64, errorRate float64, path string, opts ...Option) (*Filter, error) {
	params := FilterParams{Items: nItems, ErrorRate: errorRate}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	o := buildOptions(opts)
	o.hooks.Before(OpenStore, path)
	reader, openErr := OpenFileStore(path, params.TableSize())
	o.hooks.After(OpenStore, openErr, path)
	if openErr != nil {
		return nil, openErr
	}
	return newReader(params, reader, o)
}

// NewWithStore builds a writable filter over an already opened store
func NewWithStore(params FilterParams, store BitStore, opts ...Option) (*WritableFilter, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return newWritable(params, store, buildOptions(opts))
}

// NewReaderWithStore builds a read-only filter over an already opened store
func NewReaderWithStore(params FilterParams, reader BitReader, opts ...Option) (*Filter, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return newReader(params, reader, buildOptions(opts))
}

func newWritable(params FilterParams, store BitStore, o options) (*WritableFilter, error) {
	f, err := newReader(params, store, o)
	if err != nil {
		return nil, err
	}
	return &WritableFilter{Filter: *f, store: store}, nil
}

func newReader(params FilterParams, reader BitReader, o options) (*Filter, error) {
	hashesNumber, bitsPerItem := params.HashesMemSize()
	tableSize := params.TableSize()
	if reader.Len() != tableSize {
		return nil, errors.Wrapf(
			ErrInvalidParams,
			"store holds %d bits, parameters require %d",
			reader.Len(),
			tableSize,
		)
	}
	return &Filter{
		params:       params,
		hashesNumber: hashesNumber,
		bitsPerItem:  bitsPerItem,
		tableSize:    tableSize,
		reader:       reader,
		scheme:       o.scheme,
		hooks:        o.hooks,
		logger:       o.logger,
	}, nil
}

func logParams(logger Logger, params FilterParams) {
	hashesNumber, bitsPerItem := params.HashesMemSize()
	logger("No. of items:", params.Items)
	logger("No. of hashes:", hashesNumber)
	logger("bits/item:", bitsPerItem)
	logger(fmt.Sprintf("Space required: %.4f MB", params.SpaceMB()))
}

func (f *Filter) Params() FilterParams {
	return f.params
}

func (f *Filter) HashesNumber() uint32 {
	return f.hashesNumber
}

func (f *Filter) BitsPerItem() uint64 {
	return f.bitsPerItem
}

// Locations returns the bit indexes key maps to
func (f *Filter) Locations(key []byte) []uint64 {
	return f.scheme.Locations(key, f.hashesNumber, f.tableSize)
}

// Contains reports whether key may have been added.
// False positives are possible, false negatives are not.
func (f *Filter) Contains(key []byte) (exists bool, err error) {
	f.hooks.Before(Contains, key)
	defer func() {
		f.hooks.After(Contains, err, key, exists)
	}()
	for _, location := range f.Locations(key) {
		isSet, getErr := f.reader.Get(location)
		if getErr != nil {
			return false, errors.Wrapf(getErr, "check key %q", key)
		}
		if !isSet {
			return false, nil
		}
	}
	return true, nil
}

func (f *Filter) ContainsString(key string) (bool, error) {
	return f.Contains([]byte(key))
}

func (f *Filter) Close() error {
	f.hooks.Before(CloseFilter)
	closeErr := f.reader.Close()
	f.hooks.After(CloseFilter, closeErr)
	return closeErr
}

// Add sets every bit key maps to. Bits set before a failure stay set,
// so a failed Add can be retried.
func (wf *WritableFilter) Add(key []byte) (err error) {
	wf.hooks.Before(Add, key)
	defer func() {
		wf.hooks.After(Add, err, key)
	}()
	for _, location := range wf.Locations(key) {
		if setErr := wf.store.Set(location); setErr != nil {
			return errors.Wrapf(setErr, "add key %q", key)
		}
	}
	return nil
}

func (wf *WritableFilter) AddString(key string) error {
	return wf.Add([]byte(key))
}

// Sync flushes the table to stable storage when the store supports it
func (wf *WritableFilter) Sync() error {
	if syncer, ok := wf.store.(interface{ Sync() error }); ok {
		return syncer.Sync()
	}
	return nil
}

func (wf *WritableFilter) Close() error {
	var result *multierror.Error
	if syncErr := wf.Sync(); syncErr != nil {
		result = multierror.Append(result, syncErr)
	}
	if closeErr := wf.Filter.Close(); closeErr != nil {
		result = multierror.Append(result, closeErr)
	}
	return result.ErrorOrNil()
}
