package drm

import "sync/atomic"

// Crtc drives the timing and scanout for one display pipeline.
type Crtc struct {
	object

	// Index is the position of this CRTC in the device's CRTC list,
	// used for membership bitmasks.
	Index int

	primary *Plane
	cursor  *Plane
	state   atomic.Pointer[CrtcState]
}

// CrtcState is an immutable snapshot of a CRTC's configuration. It is
// never mutated once installed as the current state; transactions
// prepare a copy and swap it in on commit completion.
type CrtcState struct {
	Crtc   *Crtc
	Active bool

	// Dirty flags record which parts of the snapshot differ from the
	// snapshot it was derived from.
	PlanesChanged     bool
	ModeChanged       bool
	ActiveChanged     bool
	ConnectorsChanged bool

	PlaneMask     uint32
	ConnectorMask uint32
	EncoderMask   uint32

	Mode *Blob
}

// clone derives a fresh proposed snapshot with all dirty flags cleared.
func (s *CrtcState) clone() *CrtcState {
	c := *s
	c.PlanesChanged = false
	c.ModeChanged = false
	c.ActiveChanged = false
	c.ConnectorsChanged = false
	return &c
}

// PrimaryPlane returns the plane that scans out the CRTC's main image.
func (c *Crtc) PrimaryPlane() *Plane { return c.primary }

// CursorPlane returns the CRTC's cursor plane, or nil if the hardware
// has none.
func (c *Crtc) CursorPlane() *Plane { return c.cursor }

// State returns the currently-active snapshot. In-flight transactions
// may keep referring to a snapshot after a newer one is installed.
func (c *Crtc) State() *CrtcState { return c.state.Load() }

func (c *Crtc) setState(s *CrtcState) { c.state.Store(s) }

func (c *Crtc) Assignments() []Assignment {
	st := c.State()
	var active uint64
	if st.Active {
		active = 1
	}
	return []Assignment{
		AssignInt(c, c.dev.Property(PropertyActive), active),
		AssignBlob(c, c.dev.Property(PropertyModeID), st.Mode),
	}
}
