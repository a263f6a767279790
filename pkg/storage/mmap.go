package storage

import (
	"fmt"
	"os"
)

// mappedFile is the narrow interface the vector engine needs from its
// backing region: a growable byte slice backed by a file, flushable to
// stable storage. mmapFile (unix) and bufferedFile (everything else)
// both satisfy it.
type mappedFile interface {
	// bytes returns the current view of the region. The slice is only
	// valid until the next call to grow.
	bytes() []byte
	// grow extends the region to at least n bytes, zero-filling the new
	// tail. It may invalidate slices returned by a prior bytes call.
	grow(n int) error
	// sync flushes dirty pages to the underlying file.
	sync() error
	// close unmaps/releases the region and closes the underlying file.
	close() error
}

// openMappedFile opens path (creating it if absent) and maps it, growing
// it to at least initialSize bytes. If the file already holds more than
// initialSize bytes (reopening an existing region), the whole existing
// content is mapped so no previously persisted data is lost.
func openMappedFile(path string, initialSize int) (mappedFile, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", path, err)
	}
	mf, err := newMappedFile(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		mf.close()
		return nil, fmt.Errorf("storage: stat %s: %w", path, err)
	}
	target := initialSize
	if existing := int(info.Size()); existing > target {
		target = existing
	}
	if target > 0 {
		if err := mf.grow(target); err != nil {
			mf.close()
			return nil, err
		}
	}
	return mf, nil
}

// MappedRegion is an exported handle onto a memory-mapped (or, on
// platforms without unix mmap, buffered) file, for components other
// than the vector engine that need the same zero-copy-where-possible
// region primitive — notably the HNSW index's on-disk graph, whose
// loader must keep the mapping alive for exactly as long as the parsed
// graph structure references its bytes.
type MappedRegion struct {
	file mappedFile
}

// OpenMappedRegion opens (creating if absent) path and maps it, growing
// it to at least initialSize bytes if it is smaller.
func OpenMappedRegion(path string, initialSize int) (*MappedRegion, error) {
	f, err := openMappedFile(path, initialSize)
	if err != nil {
		return nil, err
	}
	return &MappedRegion{file: f}, nil
}

// Bytes returns the current view of the region. Only valid until the
// next Grow call.
func (r *MappedRegion) Bytes() []byte { return r.file.bytes() }

// Grow extends the region to at least n bytes.
func (r *MappedRegion) Grow(n int) error { return r.file.grow(n) }

// Sync flushes dirty pages to the underlying file.
func (r *MappedRegion) Sync() error { return r.file.sync() }

// Close unmaps the region and closes the underlying file. The caller
// must ensure nothing still references a slice from Bytes after Close
// returns — the classic "mapping holder must outlive its readers"
// contract, enforced by convention (drop all structures built over
// Bytes before calling Close) rather than by the type system.
func (r *MappedRegion) Close() error { return r.file.close() }
