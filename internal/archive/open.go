package archive

import (
	"errors"
	"fmt"
	"os"

	"github.com/gofrs/flock"

	"mseedcut/internal/mseed"
)

// File is an archive opened for reading. When locks are respected it
// holds a shared lock until Close.
type File struct {
	*os.File
	lock *flock.Flock
}

// Open opens an archive read-only. With respectLocks set it first takes a
// shared lock and fails with ErrArchiveLocked when a writer holds the
// exclusive lock.
func Open(path string, respectLocks bool) (*File, error) {
	// Open before locking so a missing path is reported rather than
	// created by the lock file open.
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !respectLocks {
		return &File{File: f}, nil
	}
	lock := flock.New(path, flock.SetFlag(os.O_RDONLY))
	ok, err := lock.TryRLock()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}
	if !ok {
		f.Close()
		return nil, fmt.Errorf("%w: %s", ErrArchiveLocked, path)
	}
	return &File{File: f, lock: lock}, nil
}

// Close closes the file and releases the shared lock.
func (f *File) Close() error {
	err := f.File.Close()
	if f.lock != nil {
		err = errors.Join(err, f.lock.Unlock())
	}
	return err
}

// ReadHeaders reads per-trace header summaries without decoding samples.
func ReadHeaders(path string, respectLocks bool, opts ...mseed.ReadOption) ([]mseed.TraceHeader, error) {
	f, err := Open(path, respectLocks)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	headers, err := mseed.ReadHeaders(f, opts...)
	if err != nil {
		return nil, err
	}
	if len(headers) == 0 {
		return nil, fmt.Errorf("%s holds no data records", path)
	}
	return headers, nil
}

// ReadTraces decodes every trace in the archive.
func ReadTraces(path string, respectLocks bool, opts ...mseed.ReadOption) ([]mseed.Trace, error) {
	f, err := Open(path, respectLocks)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return mseed.Read(f, opts...)
}
