package drm_test

import (
	"errors"
	"io"
	"testing"

	"deedles.dev/drm"
)

func TestPrimeFileSeek(t *testing.T) {
	f := drm.NewPrimeFile(nil, 4096)

	if f.Size() != 4096 {
		t.Fatalf("Size = %d", f.Size())
	}

	tests := []struct {
		name    string
		offset  int64
		whence  int
		want    int64
		wantErr bool
	}{
		{"start", 100, io.SeekStart, 100, false},
		{"current", 28, io.SeekCurrent, 128, false},
		{"current back", -28, io.SeekCurrent, 100, false},
		{"end", -96, io.SeekEnd, 4000, false},
		{"past end", 100, io.SeekEnd, 4196, false},
		{"negative", -1, io.SeekStart, 0, true},
		{"bad whence", 0, 42, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.Seek(tt.offset, tt.whence)
			if tt.wantErr {
				if !errors.Is(err, drm.ErrInvalidArgument) {
					t.Fatalf("expected ErrInvalidArgument, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("Seek = %d, want %d", got, tt.want)
			}
		})
	}

	// A failed seek leaves the position alone.
	if got, err := f.Seek(0, io.SeekCurrent); err != nil || got != 4196 {
		t.Errorf("position after failed seeks = (%d, %v), want 4196", got, err)
	}
}
