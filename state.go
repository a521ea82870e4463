package drm

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// AtomicState is the transient bundle of proposed state snapshots
// belonging to one Configuration. It refers to committed state only by
// reference: the bundle is discarded on Dispose and becomes the touched
// objects' current snapshots when the commit completes.
type AtomicState struct {
	dev        *Device
	crtcs      map[uint32]*CrtcState
	planes     map[uint32]*PlaneState
	connectors map[uint32]*ConnectorState
}

func newAtomicState(dev *Device) *AtomicState {
	return &AtomicState{
		dev:        dev,
		crtcs:      make(map[uint32]*CrtcState),
		planes:     make(map[uint32]*PlaneState),
		connectors: make(map[uint32]*ConnectorState),
	}
}

// Crtc returns the proposed snapshot for c, deriving one from the
// current snapshot on first touch.
func (s *AtomicState) Crtc(c *Crtc) *CrtcState {
	if st, ok := s.crtcs[c.ID()]; ok {
		return st
	}
	st := c.State().clone()
	st.Crtc = c
	s.crtcs[c.ID()] = st
	return st
}

// Plane returns the proposed snapshot for p, deriving one from the
// current snapshot on first touch.
func (s *AtomicState) Plane(p *Plane) *PlaneState {
	if st, ok := s.planes[p.ID()]; ok {
		return st
	}
	st := p.State().clone()
	st.Plane = p
	s.planes[p.ID()] = st
	return st
}

// Connector returns the proposed snapshot for c, deriving one from the
// current snapshot on first touch.
func (s *AtomicState) Connector(c *Connector) *ConnectorState {
	if st, ok := s.connectors[c.ID()]; ok {
		return st
	}
	st := c.State().clone()
	st.Connector = c
	s.connectors[c.ID()] = st
	return st
}

// CrtcStates returns the proposed CRTC snapshots, for backends to
// program from.
func (s *AtomicState) CrtcStates() []*CrtcState {
	return maps.Values(s.crtcs)
}

// PlaneStates returns the proposed plane snapshots.
func (s *AtomicState) PlaneStates() []*PlaneState {
	return maps.Values(s.planes)
}

// ConnectorStates returns the proposed connector snapshots.
func (s *AtomicState) ConnectorStates() []*ConnectorState {
	return maps.Values(s.connectors)
}

// crtcIDs returns the ids of all CRTCs the bundle touches, sorted.
func (s *AtomicState) crtcIDs() []uint32 {
	ids := maps.Keys(s.crtcs)
	slices.Sort(ids)
	return ids
}

// install swaps every touched object's current snapshot to the proposed
// one. Called exactly once, when the backend confirms completion.
func (s *AtomicState) install() {
	for _, st := range s.crtcs {
		st.Crtc.setState(st)
	}
	for _, st := range s.planes {
		st.Plane.setState(st)
	}
	for _, st := range s.connectors {
		st.Connector.setState(st)
	}
}
