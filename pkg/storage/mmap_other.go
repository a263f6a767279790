//go:build !unix

package storage

import (
	"fmt"
	"os"
)

// bufferedFile is the portable fallback backend for platforms without
// golang.org/x/sys/unix mmap support. It keeps the whole region in a
// plain Go byte slice, loading it from (and flushing it back to) the
// file on sync/close — losing zero-copy mapping but never losing data.
type bufferedFile struct {
	f    *os.File
	data []byte
}

func newMappedFile(f *os.File) (mappedFile, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("storage: stat: %w", err)
	}
	data := make([]byte, info.Size())
	if _, err := f.ReadAt(data, 0); err != nil && len(data) > 0 {
		return nil, fmt.Errorf("storage: read: %w", err)
	}
	return &bufferedFile{f: f, data: data}, nil
}

func (b *bufferedFile) bytes() []byte { return b.data }

func (b *bufferedFile) grow(n int) error {
	if len(b.data) >= n {
		return nil
	}
	grown := make([]byte, n)
	copy(grown, b.data)
	b.data = grown
	return nil
}

func (b *bufferedFile) sync() error {
	if _, err := b.f.WriteAt(b.data, 0); err != nil {
		return fmt.Errorf("storage: write: %w", err)
	}
	return b.f.Sync()
}

func (b *bufferedFile) close() error {
	if err := b.sync(); err != nil {
		return err
	}
	return b.f.Close()
}
