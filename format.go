package drm

// Pixel format codes in the fourcc convention: four character codes
// packed little-endian, describing the in-memory layout of one pixel.
const (
	FormatInvalid uint32 = 0

	FormatC8       uint32 = 0x20203843 // 'C8  ' 8-bit palette
	FormatXRGB1555 uint32 = 0x35315258 // 'XR15'
	FormatRGB565   uint32 = 0x36314752 // 'RG16'
	FormatRGB888   uint32 = 0x34324752 // 'RG24'
	FormatBGR888   uint32 = 0x34324742 // 'BG24'
	FormatXRGB8888 uint32 = 0x34325258 // 'XR24'
	FormatXBGR8888 uint32 = 0x34324258 // 'XB24'
	FormatARGB8888 uint32 = 0x34325241 // 'AR24'
	FormatABGR8888 uint32 = 0x34324241 // 'AB24'

	FormatXRGB2101010 uint32 = 0x30335258 // 'XR30'
	FormatARGB2101010 uint32 = 0x30335241 // 'AR30'
)

// FormatInfo carries per-format metadata used to validate framebuffer
// layout.
type FormatInfo struct {
	// CPP is the number of bytes (chars) per pixel.
	CPP int
}

var formatInfo = map[uint32]FormatInfo{
	FormatC8:          {CPP: 1},
	FormatXRGB1555:    {CPP: 2},
	FormatRGB565:      {CPP: 2},
	FormatRGB888:      {CPP: 3},
	FormatBGR888:      {CPP: 3},
	FormatXRGB8888:    {CPP: 4},
	FormatXBGR8888:    {CPP: 4},
	FormatARGB8888:    {CPP: 4},
	FormatABGR8888:    {CPP: 4},
	FormatXRGB2101010: {CPP: 4},
	FormatARGB2101010: {CPP: 4},
}

// GetFormatInfo returns metadata for a supported pixel format. The
// second return value is false for unknown codes.
func GetFormatInfo(fourcc uint32) (FormatInfo, bool) {
	info, ok := formatInfo[fourcc]
	return info, ok
}

// ConvertLegacyFormat maps a legacy (bits-per-pixel, color-depth) pair,
// as used by pre-atomic interfaces, onto the equivalent modern format
// code. Unknown combinations yield FormatInvalid.
func ConvertLegacyFormat(bpp, depth uint32) uint32 {
	switch [2]uint32{bpp, depth} {
	case [2]uint32{8, 8}:
		return FormatC8
	case [2]uint32{16, 15}:
		return FormatXRGB1555
	case [2]uint32{16, 16}:
		return FormatRGB565
	case [2]uint32{24, 24}:
		return FormatRGB888
	case [2]uint32{32, 24}:
		return FormatXRGB8888
	case [2]uint32{32, 30}:
		return FormatXRGB2101010
	case [2]uint32{32, 32}:
		return FormatARGB8888
	default:
		return FormatInvalid
	}
}
