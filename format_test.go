package drm_test

import (
	"testing"

	"deedles.dev/drm"
)

func TestConvertLegacyFormat(t *testing.T) {
	tests := []struct {
		bpp, depth uint32
		want       uint32
	}{
		{8, 8, drm.FormatC8},
		{16, 15, drm.FormatXRGB1555},
		{16, 16, drm.FormatRGB565},
		{24, 24, drm.FormatRGB888},
		{32, 24, drm.FormatXRGB8888},
		{32, 30, drm.FormatXRGB2101010},
		{32, 32, drm.FormatARGB8888},
		{32, 16, drm.FormatInvalid},
		{15, 15, drm.FormatInvalid},
		{0, 0, drm.FormatInvalid},
	}
	for _, tt := range tests {
		if got := drm.ConvertLegacyFormat(tt.bpp, tt.depth); got != tt.want {
			t.Errorf("ConvertLegacyFormat(%d, %d) = %#x, want %#x", tt.bpp, tt.depth, got, tt.want)
		}
	}
}

func TestGetFormatInfo(t *testing.T) {
	tests := []struct {
		fourcc uint32
		cpp    int
	}{
		{drm.FormatC8, 1},
		{drm.FormatRGB565, 2},
		{drm.FormatRGB888, 3},
		{drm.FormatXRGB8888, 4},
		{drm.FormatARGB2101010, 4},
	}
	for _, tt := range tests {
		info, ok := drm.GetFormatInfo(tt.fourcc)
		if !ok {
			t.Errorf("format %#x unknown", tt.fourcc)
			continue
		}
		if info.CPP != tt.cpp {
			t.Errorf("format %#x CPP = %d, want %d", tt.fourcc, info.CPP, tt.cpp)
		}
	}

	if _, ok := drm.GetFormatInfo(0xdeadbeef); ok {
		t.Error("bogus fourcc reported as supported")
	}
	if _, ok := drm.GetFormatInfo(drm.FormatInvalid); ok {
		t.Error("FormatInvalid reported as supported")
	}
}
