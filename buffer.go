package drm

import "os"

// BufferObject is an opaque handle onto a region of GPU-addressable
// memory. Implementations are provided by device-specific allocators;
// see the dumb package for a CPU-accessible one.
type BufferObject interface {
	// Size returns the size of the region in bytes.
	Size() uint64

	// Memory returns the backing descriptor and the offset of the
	// region within it, suitable for handing to a generic memory-map
	// facility.
	Memory() (*os.File, uint64)

	// SetupMapping associates the buffer with a virtualized mmap
	// offset. The offset is only meaningful on the File that installed
	// it.
	SetupMapping(offset uint64)

	// Mapping returns the virtualized mmap offset, if one has been set
	// up.
	Mapping() (uint64, bool)
}

// BufferMapping implements the mapping-token half of BufferObject.
// Buffer implementations embed it.
type BufferMapping struct {
	offset uint64
	valid  bool
}

func (m *BufferMapping) SetupMapping(offset uint64) {
	m.offset = offset
	m.valid = true
}

func (m *BufferMapping) Mapping() (uint64, bool) {
	return m.offset, m.valid
}
