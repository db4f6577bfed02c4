// Command diskbloom adds keys to, queries and benchmarks a disk resident bloom filter.
//
//	diskbloom add      < keys.txt
//	diskbloom contains < keys.txt
//	diskbloom bench
//
// Settings come from DISKBLOOM_* environment variables, see internal/config.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/vkuptcov/diskbloom"
	"github.com/vkuptcov/diskbloom/internal/config"
	"github.com/vkuptcov/diskbloom/redisclients"
	"syreclabs.com/go/faker"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: diskbloom add|contains|bench")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("configuration failed")
	}
	logger := logrus.New()
	level, levelErr := logrus.ParseLevel(cfg.LogLevel)
	if levelErr != nil {
		logrus.WithError(levelErr).Fatal("configuration failed")
	}
	logger.SetLevel(level)

	if runErr := run(context.Background(), os.Args[1], cfg, logger, os.Stdin, os.Stdout); runErr != nil {
		logger.WithError(runErr).Fatal("diskbloom failed")
	}
}

// errMemoryBenchOnly is returned for add and contains on the memory backend:
// the table does not outlive the process
var errMemoryBenchOnly = errors.New("memory backend supports bench only")

type app struct {
	cfg    *config.AppConfig
	params diskbloom.FilterParams
	logger *logrus.Logger
	redis  *redis.Client
	memory *diskbloom.MemoryStore
}

func run(ctx context.Context, command string, cfg *config.AppConfig, logger *logrus.Logger, in io.Reader, out io.Writer) error {
	a := &app{
		cfg:    cfg,
		params: diskbloom.FilterParams{Items: cfg.Items, ErrorRate: cfg.ErrorRate},
		logger: logger,
	}
	if cfg.Backend == "redis" {
		a.redis = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer a.redis.Close()
	}

	if cfg.Backend == "memory" && command != "bench" {
		return errors.Wrapf(errMemoryBenchOnly, "command %q", command)
	}

	switch command {
	case "add":
		return a.add(ctx, in)
	case "contains":
		return a.contains(ctx, in, out)
	case "bench":
		return a.bench(ctx)
	default:
		return errors.Errorf("unknown command %q", command)
	}
}

func (a *app) options() []diskbloom.Option {
	return []diskbloom.Option{diskbloom.WithLogger(diskbloom.LogrusLogger(a.logger))}
}

func (a *app) writable(ctx context.Context) (*diskbloom.WritableFilter, error) {
	switch a.cfg.Backend {
	case "memory":
		if a.memory == nil {
			a.memory = diskbloom.NewMemoryStore(a.params.TableSize())
		}
		return diskbloom.NewWithStore(a.params, a.memory, a.options()...)
	case "redis":
		store, err := a.redisStore(ctx)
		if err != nil {
			return nil, err
		}
		return diskbloom.NewWithStore(a.params, store, a.options()...)
	default:
		return diskbloom.New(a.cfg.Items, a.cfg.ErrorRate, a.cfg.Path, a.options()...)
	}
}

// reader opens a read-only handle. File readers get their own descriptor each
func (a *app) reader(ctx context.Context) (*diskbloom.Filter, error) {
	switch a.cfg.Backend {
	case "memory":
		wf, err := a.writable(ctx)
		if err != nil {
			return nil, err
		}
		return &wf.Filter, nil
	case "redis":
		store, err := a.redisStore(ctx)
		if err != nil {
			return nil, err
		}
		return diskbloom.NewReaderWithStore(a.params, store, a.options()...)
	default:
		return diskbloom.Open(a.cfg.Items, a.cfg.ErrorRate, a.cfg.Path, diskbloom.WithLogger(diskbloom.NoOpLogger))
	}
}

func (a *app) redisStore(ctx context.Context) (*diskbloom.RedisStore, error) {
	return diskbloom.NewRedisStore(
		ctx,
		redisclients.NewGoRedisClient(a.redis),
		a.cfg.RedisKey,
		a.params.TableSize(),
		diskbloom.LogrusLogger(a.logger),
	)
}

func (a *app) add(ctx context.Context, in io.Reader) (err error) {
	filter, openErr := a.writable(ctx)
	if openErr != nil {
		return openErr
	}
	defer func() {
		if closeErr := filter.Close(); closeErr != nil {
			err = multierror.Append(err, closeErr)
		}
	}()

	added := 0
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if addErr := filter.AddString(scanner.Text()); addErr != nil {
			return addErr
		}
		added++
	}
	a.logger.WithField("keys", added).Info("keys added")
	return errors.Wrap(scanner.Err(), "read keys")
}

func (a *app) contains(ctx context.Context, in io.Reader, out io.Writer) (err error) {
	filter, openErr := a.reader(ctx)
	if openErr != nil {
		return openErr
	}
	defer func() {
		if closeErr := filter.Close(); closeErr != nil {
			err = multierror.Append(err, closeErr)
		}
	}()

	w := bufio.NewWriter(out)
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		key := scanner.Text()
		exists, containsErr := filter.ContainsString(key)
		if containsErr != nil {
			return containsErr
		}
		fmt.Fprintf(w, "%s\t%t\n", key, exists)
	}
	if scanErr := scanner.Err(); scanErr != nil {
		return errors.Wrap(scanErr, "read keys")
	}
	return errors.Wrap(w.Flush(), "write results")
}

// bench adds random keys and then checks them back with one reader per worker,
// every worker owning a disjoint chunk of the keys
func (a *app) bench(ctx context.Context) error {
	keys := make([]string, a.cfg.BenchKeys)
	for i := range keys {
		keys[i] = faker.RandomString(a.cfg.KeyLength)
	}

	filter, openErr := a.writable(ctx)
	if openErr != nil {
		return openErr
	}
	addStart := time.Now()
	for _, key := range keys {
		if addErr := filter.AddString(key); addErr != nil {
			_ = filter.Close()
			return addErr
		}
	}
	addTime := time.Since(addStart)
	if closeErr := filter.Close(); closeErr != nil {
		return closeErr
	}
	a.logger.WithFields(logrus.Fields{"keys": len(keys), "elapsed": addTime}).Info("sequential add")

	readStart := time.Now()
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		errBatch *multierror.Error
	)
	for _, chunk := range chunks(keys, a.cfg.Workers) {
		wg.Add(1)
		go func(chunk []string) {
			defer wg.Done()
			missing, checkErr := a.check(ctx, chunk)
			if checkErr == nil && missing > 0 {
				checkErr = errors.Errorf("%d added keys reported missing", missing)
			}
			mu.Lock()
			errBatch = multierror.Append(errBatch, checkErr)
			mu.Unlock()
		}(chunk)
	}
	wg.Wait()
	a.logger.WithFields(logrus.Fields{
		"keys":    len(keys),
		"workers": a.cfg.Workers,
		"elapsed": time.Since(readStart),
	}).Info("concurrent contains")
	return errBatch.ErrorOrNil()
}

func (a *app) check(ctx context.Context, keys []string) (missing int, err error) {
	filter, openErr := a.reader(ctx)
	if openErr != nil {
		return 0, openErr
	}
	defer filter.Close()
	for _, key := range keys {
		exists, containsErr := filter.ContainsString(key)
		if containsErr != nil {
			return missing, containsErr
		}
		if !exists {
			missing++
		}
	}
	return missing, nil
}

func chunks(keys []string, parts int) [][]string {
	size := (len(keys) + parts - 1) / parts
	if size == 0 {
		return nil
	}
	result := make([][]string, 0, parts)
	for start := 0; start < len(keys); start += size {
		end := start + size
		if end > len(keys) {
			end = len(keys)
		}
		result = append(result, keys[start:end])
	}
	return result
}
