//go:build unix

package storage

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// mmapFile is the unix zero-copy backend: the region is a real mmap of
// the underlying file, grown with ftruncate + re-mmap.
type mmapFile struct {
	f    *os.File
	data []byte
}

func newMappedFile(f *os.File) (mappedFile, error) {
	return &mmapFile{f: f}, nil
}

func (m *mmapFile) bytes() []byte { return m.data }

func (m *mmapFile) grow(n int) error {
	if len(m.data) >= n {
		return nil
	}
	if err := m.f.Truncate(int64(n)); err != nil {
		return fmt.Errorf("storage: truncate: %w", err)
	}
	if m.data != nil {
		if err := unix.Munmap(m.data); err != nil {
			return fmt.Errorf("storage: munmap: %w", err)
		}
		m.data = nil
	}
	data, err := unix.Mmap(int(m.f.Fd()), 0, n, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return fmt.Errorf("storage: mmap: %w", err)
	}
	m.data = data
	return nil
}

func (m *mmapFile) sync() error {
	if m.data == nil {
		return nil
	}
	if err := unix.Msync(m.data, unix.MS_SYNC); err != nil {
		return fmt.Errorf("storage: msync: %w", err)
	}
	return nil
}

func (m *mmapFile) close() error {
	if m.data != nil {
		if err := unix.Munmap(m.data); err != nil {
			return fmt.Errorf("storage: munmap: %w", err)
		}
		m.data = nil
	}
	return m.f.Close()
}
