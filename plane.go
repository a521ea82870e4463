package drm

import "sync/atomic"

// PlaneType classifies a plane's role in its CRTC's composition.
type PlaneType uint32

const (
	PlaneOverlay PlaneType = 0
	PlanePrimary PlaneType = 1
	PlaneCursor  PlaneType = 2
)

func (t PlaneType) String() string {
	switch t {
	case PlaneOverlay:
		return "overlay"
	case PlanePrimary:
		return "primary"
	case PlaneCursor:
		return "cursor"
	default:
		return "unknown"
	}
}

// Plane is a compositing layer bound to a CRTC, sourcing pixels from a
// FrameBuffer.
type Plane struct {
	object

	// Index is the position of this plane in the device's plane list,
	// used for membership bitmasks.
	Index int

	planeType     PlaneType
	possibleCrtcs []*Crtc

	state atomic.Pointer[PlaneState]
}

// PlaneState is an immutable snapshot of a plane's configuration. The
// source rectangle selects pixels from the framebuffer; the CRTC
// rectangle places them on the display.
type PlaneState struct {
	Plane *Plane
	Crtc  *Crtc
	FB    *FrameBuffer

	CrtcX, CrtcY int32
	CrtcW, CrtcH uint32
	SrcX, SrcY   uint32
	SrcW, SrcH   uint32
}

func (s *PlaneState) clone() *PlaneState {
	c := *s
	return &c
}

func (p *Plane) PlaneType() PlaneType { return p.planeType }

func (p *Plane) SetPossibleCrtcs(crtcs []*Crtc) { p.possibleCrtcs = crtcs }

func (p *Plane) PossibleCrtcs() []*Crtc { return p.possibleCrtcs }

// State returns the currently-active snapshot.
func (p *Plane) State() *PlaneState { return p.state.Load() }

func (p *Plane) setState(s *PlaneState) { p.state.Store(s) }

func (p *Plane) Assignments() []Assignment {
	st := p.State()
	var crtc, fb ModeObject
	if st.Crtc != nil {
		crtc = st.Crtc
	}
	if st.FB != nil {
		fb = st.FB
	}
	dev := p.dev
	return []Assignment{
		AssignObject(p, dev.Property(PropertyCrtcID), crtc),
		AssignObject(p, dev.Property(PropertyFBID), fb),
		AssignInt(p, dev.Property(PropertyCrtcX), uint64(uint32(st.CrtcX))),
		AssignInt(p, dev.Property(PropertyCrtcY), uint64(uint32(st.CrtcY))),
		AssignInt(p, dev.Property(PropertyCrtcW), uint64(st.CrtcW)),
		AssignInt(p, dev.Property(PropertyCrtcH), uint64(st.CrtcH)),
		AssignInt(p, dev.Property(PropertySrcX), uint64(st.SrcX)),
		AssignInt(p, dev.Property(PropertySrcY), uint64(st.SrcY)),
		AssignInt(p, dev.Property(PropertySrcW), uint64(st.SrcW)),
		AssignInt(p, dev.Property(PropertySrcH), uint64(st.SrcH)),
	}
}
