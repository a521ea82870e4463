package drm

import (
	"bytes"

	"deedles.dev/drm/internal/bin"
	"deedles.dev/drm/internal/set"
)

// DisplayModeLen is the size of a mode's name field.
const DisplayModeLen = 32

// ModeInfoSize is the size of one encoded ModeInfo, as stored in mode
// blobs.
const ModeInfoSize = 4 + 10*2 + 4 + 4 + 4 + DisplayModeLen

// Mode flags.
const (
	ModeFlagPHSync uint32 = 1 << 0
	ModeFlagNHSync uint32 = 1 << 1
	ModeFlagPVSync uint32 = 1 << 2
	ModeFlagNVSync uint32 = 1 << 3
)

// Mode types.
const (
	ModeTypePreferred uint32 = 1 << 3
	ModeTypeDriver    uint32 = 1 << 6
)

// ModeInfo describes one display timing: pixel clock in kHz plus the
// horizontal and vertical sync geometry.
type ModeInfo struct {
	Clock uint32

	HDisplay, HSyncStart, HSyncEnd, HTotal, HSkew uint16
	VDisplay, VSyncStart, VSyncEnd, VTotal, VScan uint16

	VRefresh uint32

	Flags uint32
	Type  uint32
	Name  [DisplayModeLen]byte
}

// NewModeInfo assembles a ModeInfo, deriving the vertical refresh rate
// from the clock and the total timing geometry.
func NewModeInfo(name string, typ, clock uint32,
	hdisplay, hsyncStart, hsyncEnd, htotal, hskew uint16,
	vdisplay, vsyncStart, vsyncEnd, vtotal, vscan uint16, flags uint32) ModeInfo {

	m := ModeInfo{
		Clock:      clock,
		HDisplay:   hdisplay,
		HSyncStart: hsyncStart,
		HSyncEnd:   hsyncEnd,
		HTotal:     htotal,
		HSkew:      hskew,
		VDisplay:   vdisplay,
		VSyncStart: vsyncStart,
		VSyncEnd:   vsyncEnd,
		VTotal:     vtotal,
		VScan:      vscan,
		Flags:      flags,
		Type:       typ,
	}
	if htotal > 0 && vtotal > 0 {
		m.VRefresh = (clock*1000 + uint32(htotal)*uint32(vtotal)/2) /
			(uint32(htotal) * uint32(vtotal))
	}
	copy(m.Name[:], name)
	return m
}

// Encode serializes the mode for storage in a blob.
func (m *ModeInfo) Encode() []byte {
	p := make([]byte, ModeInfoSize)
	bin.Put32(p[0:], m.Clock)
	for i, v := range []uint16{
		m.HDisplay, m.HSyncStart, m.HSyncEnd, m.HTotal, m.HSkew,
		m.VDisplay, m.VSyncStart, m.VSyncEnd, m.VTotal, m.VScan,
	} {
		bin.ByteOrder.PutUint16(p[4+2*i:], v)
	}
	bin.Put32(p[24:], m.VRefresh)
	bin.Put32(p[28:], m.Flags)
	bin.Put32(p[32:], m.Type)
	copy(p[36:], m.Name[:])
	return p
}

// DecodeModeInfo parses a mode from blob data. It fails on short input.
func DecodeModeInfo(p []byte) (ModeInfo, error) {
	if len(p) < ModeInfoSize {
		return ModeInfo{}, ErrInvalidArgument
	}
	var m ModeInfo
	m.Clock = bin.Get32(p[0:])
	fields := []*uint16{
		&m.HDisplay, &m.HSyncStart, &m.HSyncEnd, &m.HTotal, &m.HSkew,
		&m.VDisplay, &m.VSyncStart, &m.VSyncEnd, &m.VTotal, &m.VScan,
	}
	for i, f := range fields {
		*f = bin.ByteOrder.Uint16(p[4+2*i:])
	}
	m.VRefresh = bin.Get32(p[24:])
	m.Flags = bin.Get32(p[28:])
	m.Type = bin.Get32(p[32:])
	copy(m.Name[:], p[36:36+DisplayModeLen])
	return m, nil
}

// NameString returns the mode name without trailing NULs.
func (m *ModeInfo) NameString() string {
	name := m.Name[:]
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}
	return string(name)
}

// dmtModes is the VESA DMT timing set used as a fallback when a display
// reports no modes of its own.
var dmtModes = []ModeInfo{
	NewModeInfo("640x480", ModeTypeDriver, 25175,
		640, 656, 752, 800, 0, 480, 490, 492, 525, 0,
		ModeFlagNHSync|ModeFlagNVSync),
	NewModeInfo("800x600", ModeTypeDriver, 40000,
		800, 840, 968, 1056, 0, 600, 601, 605, 628, 0,
		ModeFlagPHSync|ModeFlagPVSync),
	NewModeInfo("1024x768", ModeTypeDriver, 65000,
		1024, 1048, 1184, 1344, 0, 768, 771, 777, 806, 0,
		ModeFlagNHSync|ModeFlagNVSync),
	NewModeInfo("1280x720", ModeTypeDriver, 74250,
		1280, 1390, 1430, 1650, 0, 720, 725, 730, 750, 0,
		ModeFlagPHSync|ModeFlagPVSync),
	NewModeInfo("1280x800", ModeTypeDriver, 83500,
		1280, 1352, 1480, 1680, 0, 800, 803, 809, 831, 0,
		ModeFlagNHSync|ModeFlagPVSync),
	NewModeInfo("1280x1024", ModeTypeDriver, 108000,
		1280, 1328, 1440, 1688, 0, 1024, 1025, 1028, 1066, 0,
		ModeFlagPHSync|ModeFlagPVSync),
	NewModeInfo("1366x768", ModeTypeDriver, 85500,
		1366, 1436, 1579, 1792, 0, 768, 771, 774, 798, 0,
		ModeFlagPHSync|ModeFlagPVSync),
	NewModeInfo("1440x900", ModeTypeDriver, 106500,
		1440, 1520, 1672, 1904, 0, 900, 903, 909, 934, 0,
		ModeFlagNHSync|ModeFlagPVSync),
	NewModeInfo("1600x900", ModeTypeDriver, 108000,
		1600, 1624, 1704, 1800, 0, 900, 901, 904, 1000, 0,
		ModeFlagPHSync|ModeFlagPVSync),
	NewModeInfo("1600x1200", ModeTypeDriver, 162000,
		1600, 1664, 1856, 2160, 0, 1200, 1201, 1204, 1250, 0,
		ModeFlagPHSync|ModeFlagPVSync),
	NewModeInfo("1680x1050", ModeTypeDriver, 146250,
		1680, 1784, 1960, 2240, 0, 1050, 1053, 1059, 1089, 0,
		ModeFlagNHSync|ModeFlagPVSync),
	NewModeInfo("1920x1080", ModeTypeDriver, 148500,
		1920, 2008, 2052, 2200, 0, 1080, 1084, 1089, 1125, 0,
		ModeFlagPHSync|ModeFlagPVSync),
	NewModeInfo("1920x1200", ModeTypeDriver, 154000,
		1920, 1968, 2000, 2080, 0, 1200, 1203, 1209, 1235, 0,
		ModeFlagPHSync|ModeFlagNVSync),
	NewModeInfo("2560x1440", ModeTypeDriver, 241500,
		2560, 2608, 2640, 2720, 0, 1440, 1443, 1448, 1481, 0,
		ModeFlagPHSync|ModeFlagNVSync),
}

type modeKey struct {
	w, h    uint16
	refresh uint32
}

// AddDmtModes appends the standard VESA timings not exceeding
// maxWidth x maxHeight to modes, skipping timings already present, and
// returns the extended list.
func AddDmtModes(modes []ModeInfo, maxWidth, maxHeight uint16) []ModeInfo {
	seen := make(set.Set[modeKey], len(modes))
	for _, m := range modes {
		seen.Add(modeKey{m.HDisplay, m.VDisplay, m.VRefresh})
	}

	for _, m := range dmtModes {
		if m.HDisplay > maxWidth || m.VDisplay > maxHeight {
			continue
		}
		key := modeKey{m.HDisplay, m.VDisplay, m.VRefresh}
		if seen.Has(key) {
			continue
		}
		seen.Add(key)
		modes = append(modes, m)
	}
	return modes
}
