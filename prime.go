package drm

import (
	"fmt"
	"io"
	"os"
)

// PrimeFile is the minimal session object wrapping a single exported
// buffer's memory descriptor. Once export/import has transferred
// ownership, it hands the buffer to another process as a plain
// descriptor with nothing but mapping and seeking on it.
type PrimeFile struct {
	memory *os.File
	offset int64
	size   int64
}

// NewPrimeFile wraps an exported buffer's descriptor.
func NewPrimeFile(memory *os.File, size int64) *PrimeFile {
	return &PrimeFile{memory: memory, size: size}
}

// AccessMemory returns the descriptor the generic memory-map facility
// resolves directly.
func (f *PrimeFile) AccessMemory() *os.File {
	return f.memory
}

// Size returns the wrapped buffer's size in bytes.
func (f *PrimeFile) Size() int64 {
	return f.size
}

// Seek implements io.Seeker over the buffer's byte range.
func (f *PrimeFile) Seek(offset int64, whence int) (int64, error) {
	var next int64
	switch whence {
	case io.SeekStart:
		next = offset
	case io.SeekCurrent:
		next = f.offset + offset
	case io.SeekEnd:
		next = f.size + offset
	default:
		return 0, fmt.Errorf("%w: whence %d", ErrInvalidArgument, whence)
	}

	if next < 0 {
		return 0, fmt.Errorf("%w: negative offset", ErrInvalidArgument)
	}
	f.offset = next
	return next, nil
}
