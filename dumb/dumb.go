// Package dumb implements CPU-accessible buffer objects backed by
// anonymous shared memory. They are the software analog of the
// kernel's dumb buffers: linear, uncompressed, and mappable by clients
// without GPU involvement.
package dumb

import (
	"fmt"
	"os"

	"deedles.dev/drm"
	"golang.org/x/sys/unix"
)

const pageSize = 4096

// Buffer is a linear memory buffer implementing drm.BufferObject.
type Buffer struct {
	drm.BufferMapping

	file   *os.File
	data   []byte
	size   uint64
	width  uint32
	height uint32
	pitch  uint32
	bpp    uint32
}

// Create allocates a buffer large enough for a width x height image at
// bpp bits per pixel. The pitch is the tightly packed row size; the
// total size is rounded up to whole pages.
func Create(width, height, bpp uint32) (b *Buffer, err error) {
	if width == 0 || height == 0 || bpp == 0 || bpp%8 != 0 {
		return nil, fmt.Errorf("%w: %dx%d at %d bpp", drm.ErrInvalidArgument, width, height, bpp)
	}

	pitch := width * (bpp / 8)
	size := (uint64(pitch)*uint64(height) + pageSize - 1) &^ (pageSize - 1)

	fd, err := unix.MemfdCreate("drm-dumb", unix.MFD_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("create buffer memory: %w", err)
	}
	file := os.NewFile(uintptr(fd), "drm-dumb")
	defer func() {
		if err != nil {
			file.Close()
		}
	}()

	if err := file.Truncate(int64(size)); err != nil {
		return nil, fmt.Errorf("size buffer memory: %w", err)
	}

	data, err := mapShared(file, int(size))
	if err != nil {
		return nil, fmt.Errorf("map buffer memory: %w", err)
	}

	return &Buffer{
		file:   file,
		data:   data,
		size:   size,
		width:  width,
		height: height,
		pitch:  pitch,
		bpp:    bpp,
	}, nil
}

func mapShared(file *os.File, size int) (data []byte, err error) {
	sc, err := file.SyscallConn()
	if err != nil {
		return nil, err
	}

	sc.Control(func(fd uintptr) {
		m, merr := unix.Mmap(int(fd), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
		data, err = m, merr
	})

	return data, err
}

// Size returns the allocated size in bytes.
func (b *Buffer) Size() uint64 { return b.size }

// Memory returns the backing descriptor; dumb buffers always start at
// offset zero within it.
func (b *Buffer) Memory() (*os.File, uint64) { return b.file, 0 }

// Bytes is the CPU mapping of the buffer's contents.
func (b *Buffer) Bytes() []byte { return b.data }

func (b *Buffer) Width() uint32 { return b.width }

func (b *Buffer) Height() uint32 { return b.height }

func (b *Buffer) Pitch() uint32 { return b.pitch }

func (b *Buffer) BitsPerPixel() uint32 { return b.bpp }

// Destroy unmaps and releases the buffer's memory.
func (b *Buffer) Destroy() error {
	var err error
	if b.data != nil {
		err = unix.Munmap(b.data)
		b.data = nil
	}
	if b.file != nil {
		if cerr := b.file.Close(); err == nil {
			err = cerr
		}
		b.file = nil
	}
	return err
}
