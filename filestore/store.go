package filestore

import (
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/Azhovan/mooring/internal/atomicfile"
)

// Options configures disk storage behavior.
type Options struct {
	// Perm is the mode of written files. Default: 0644.
	Perm os.FileMode

	// DirPerm is the mode of created parent directories. Default: 0755.
	DirPerm os.FileMode
}

// Disk stores files on the local filesystem.
type Disk struct {
	opts Options
}

// NewDisk creates disk storage.
func NewDisk(opts Options) *Disk {
	if opts.Perm == 0 {
		opts.Perm = 0644
	}
	if opts.DirPerm == 0 {
		opts.DirPerm = 0755
	}
	return &Disk{opts: opts}
}

// Read returns the file contents. A missing file yields an error matching fs.ErrNotExist.
func (d *Disk) Read(path string) ([]byte, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is chosen by the host
	if err != nil {
		return nil, err
	}
	return data, nil
}

// WriteAtomic replaces the file contents; readers see the old or the new
// file, never a mix.
func (d *Disk) WriteAtomic(path string, data []byte) error {
	return atomicfile.Write(path, data, d.opts.Perm, d.opts.DirPerm)
}

// Memory is an in-memory store. Safe for concurrent use.
type Memory struct {
	mu     sync.RWMutex
	files  map[string][]byte
	writes int
	fail   error
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{files: make(map[string][]byte)}
}

// Read returns a copy of the stored bytes.
func (m *Memory) Read(path string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.files[path]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}
	return append([]byte(nil), data...), nil
}

// WriteAtomic stores a copy of data.
func (m *Memory) WriteAtomic(path string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.fail != nil {
		return fmt.Errorf("write %s: %w", path, m.fail)
	}
	m.files[path] = append([]byte(nil), data...)
	m.writes++
	return nil
}

// Put stores data without counting it as a write.
func (m *Memory) Put(path string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = append([]byte(nil), data...)
}

// Writes returns how many times WriteAtomic succeeded.
func (m *Memory) Writes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes
}

// FailWrites makes subsequent writes return err. Pass nil to recover.
func (m *Memory) FailWrites(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = err
}
