package dumb_test

import (
	"errors"
	"testing"

	"deedles.dev/drm"
	"deedles.dev/drm/dumb"
)

func TestCreate(t *testing.T) {
	b, err := dumb.Create(640, 480, 32)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Destroy()

	if b.Pitch() != 640*4 {
		t.Errorf("pitch %d, want %d", b.Pitch(), 640*4)
	}
	if b.Size()%4096 != 0 {
		t.Errorf("size %d not page aligned", b.Size())
	}
	if b.Size() < uint64(b.Pitch())*480 {
		t.Errorf("size %d too small for %dx480 rows", b.Size(), b.Pitch())
	}
	if b.Width() != 640 || b.Height() != 480 || b.BitsPerPixel() != 32 {
		t.Error("geometry not preserved")
	}
	if uint64(len(b.Bytes())) != b.Size() {
		t.Errorf("mapping covers %d of %d bytes", len(b.Bytes()), b.Size())
	}

	mem, off := b.Memory()
	if mem == nil || off != 0 {
		t.Error("memory descriptor missing or offset nonzero")
	}

	// The mapping is shared with the descriptor.
	b.Bytes()[0] = 0xa5
	var probe [1]byte
	if _, err := mem.ReadAt(probe[:], 0); err != nil {
		t.Fatal(err)
	}
	if probe[0] != 0xa5 {
		t.Error("write through the mapping not visible via the descriptor")
	}
}

func TestCreateRejectsBadGeometry(t *testing.T) {
	tests := []struct {
		name               string
		width, height, bpp uint32
	}{
		{"zero width", 0, 480, 32},
		{"zero height", 640, 0, 32},
		{"zero bpp", 640, 480, 0},
		{"fractional bytes per pixel", 640, 480, 12},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := dumb.Create(tt.width, tt.height, tt.bpp); !errors.Is(err, drm.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
		})
	}
}

func TestBufferAsHandle(t *testing.T) {
	b, err := dumb.Create(64, 64, 32)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Destroy()

	if _, ok := b.Mapping(); ok {
		t.Fatal("fresh buffer already has a mapping token")
	}
	b.SetupMapping(1 << 32)
	if off, ok := b.Mapping(); !ok || off != 1<<32 {
		t.Errorf("mapping token = (%#x, %v)", off, ok)
	}
}
