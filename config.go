package drm

import (
	"fmt"
	"sync"

	"deedles.dev/drm/internal/debug"
)

// Configuration is one atomic transaction against the display pipeline.
// Its lifecycle is capture, then either commit or dispose; a committed
// configuration completes exactly once, when the backend confirms the
// hardware finished applying it.
type Configuration struct {
	dev   *Device
	state *AtomicState
	ids   []uint32

	done chan struct{}
	once sync.Once
}

// NewConfiguration starts an empty transaction against the device.
func (d *Device) NewConfiguration() *Configuration {
	return &Configuration{
		dev:  d,
		done: make(chan struct{}),
	}
}

// Capture validates every assignment and stages the resulting proposed
// snapshots into a fresh bundle. It is all-or-nothing: if any
// assignment is invalid, no state is staged and the error describes the
// first offending assignment. Captured state does not affect the
// objects until the commit completes.
func (c *Configuration) Capture(assignments []Assignment) (*AtomicState, error) {
	state := newAtomicState(c.dev)
	for _, a := range assignments {
		if a.Property == nil {
			return nil, fmt.Errorf("capture: %w", ErrInvalidProperty)
		}
		if err := captureAssignment(state, a); err != nil {
			return nil, fmt.Errorf("capture %v: %w", a.Property.Name(), err)
		}
	}
	c.state = state
	return state, nil
}

func captureAssignment(state *AtomicState, a Assignment) error {
	prop := a.Property

	switch prop.PropertyID() {
	case PropertyActive:
		crtc, ok := AsCrtc(a.Object)
		if !ok {
			return ErrInvalidProperty
		}
		if !prop.validateInt(a.IntValue) {
			return ErrInvalidValue
		}
		cs := state.Crtc(crtc)
		cs.Active = a.IntValue != 0
		cs.ActiveChanged = true

	case PropertyModeID:
		crtc, ok := AsCrtc(a.Object)
		if !ok {
			return ErrInvalidProperty
		}
		blob := a.BlobValue
		if blob != nil {
			registered, ok := state.dev.FindBlob(blob.ID())
			if !ok || registered != blob {
				return fmt.Errorf("%w: unregistered mode blob", ErrInvalidValue)
			}
			if blob.Size() < ModeInfoSize {
				return fmt.Errorf("%w: truncated mode blob", ErrInvalidValue)
			}
		}
		cs := state.Crtc(crtc)
		cs.Mode = blob
		cs.ModeChanged = true
		if blob == nil {
			// Clearing the mode also deactivates the pipe.
			cs.Active = false
			cs.ActiveChanged = true
		}

	case PropertyCrtcID:
		if conn, ok := AsConnector(a.Object); ok {
			return captureConnectorCrtc(state, conn, a.ObjectValue)
		}
		if plane, ok := AsPlane(a.Object); ok {
			return capturePlaneCrtc(state, plane, a.ObjectValue)
		}
		return ErrInvalidProperty

	case PropertyFBID:
		plane, ok := AsPlane(a.Object)
		if !ok {
			return ErrInvalidProperty
		}
		ps := state.Plane(plane)
		if a.ObjectValue == nil {
			ps.FB = nil
			return nil
		}
		fb, ok := AsFrameBuffer(a.ObjectValue)
		if !ok {
			return fmt.Errorf("%w: FB_ID target is not a framebuffer", ErrInvalidValue)
		}
		ps.FB = fb

	case PropertyCrtcX, PropertyCrtcY, PropertyCrtcW, PropertyCrtcH,
		PropertySrcX, PropertySrcY, PropertySrcW, PropertySrcH:
		plane, ok := AsPlane(a.Object)
		if !ok {
			return ErrInvalidProperty
		}
		if !prop.validateInt(a.IntValue) {
			return ErrInvalidValue
		}
		ps := state.Plane(plane)
		v := a.IntValue
		switch prop.PropertyID() {
		case PropertyCrtcX:
			ps.CrtcX = int32(v)
		case PropertyCrtcY:
			ps.CrtcY = int32(v)
		case PropertyCrtcW:
			ps.CrtcW = uint32(v)
		case PropertyCrtcH:
			ps.CrtcH = uint32(v)
		case PropertySrcX:
			ps.SrcX = uint32(v)
		case PropertySrcY:
			ps.SrcY = uint32(v)
		case PropertySrcW:
			ps.SrcW = uint32(v)
		case PropertySrcH:
			ps.SrcH = uint32(v)
		}

	case PropertyDpms:
		conn, ok := AsConnector(a.Object)
		if !ok {
			return ErrInvalidProperty
		}
		if !prop.validateInt(a.IntValue) {
			return ErrInvalidValue
		}
		cns := state.Connector(conn)
		cns.Dpms = uint32(a.IntValue)

	default:
		return ErrInvalidProperty
	}
	return nil
}

// captureConnectorCrtc rebinds a connector to a CRTC, selecting a
// compatible encoder and updating both pipes' membership masks.
func captureConnectorCrtc(state *AtomicState, conn *Connector, target ModeObject) error {
	cns := state.Connector(conn)

	if old := cns.Crtc; old != nil {
		ocs := state.Crtc(old)
		ocs.ConnectorMask &^= 1 << uint(conn.Index)
		if cns.Encoder != nil {
			ocs.EncoderMask &^= 1 << uint(cns.Encoder.Index)
		}
		ocs.ConnectorsChanged = true
	}

	if target == nil {
		cns.Crtc = nil
		cns.Encoder = nil
		return nil
	}

	crtc, ok := AsCrtc(target)
	if !ok {
		return fmt.Errorf("%w: CRTC_ID target is not a CRTC", ErrInvalidValue)
	}

	enc := pickEncoder(conn, crtc)
	if enc == nil {
		return fmt.Errorf("%w: no encoder can drive the connector from that CRTC", ErrInvalidValue)
	}

	cns.Crtc = crtc
	cns.Encoder = enc

	cs := state.Crtc(crtc)
	cs.ConnectorMask |= 1 << uint(conn.Index)
	cs.EncoderMask |= 1 << uint(enc.Index)
	cs.ConnectorsChanged = true
	return nil
}

// capturePlaneCrtc rebinds a plane to a CRTC, updating plane masks on
// both the old and new pipes.
func capturePlaneCrtc(state *AtomicState, plane *Plane, target ModeObject) error {
	ps := state.Plane(plane)

	if old := ps.Crtc; old != nil {
		ocs := state.Crtc(old)
		ocs.PlaneMask &^= 1 << uint(plane.Index)
		ocs.PlanesChanged = true
	}

	if target == nil {
		ps.Crtc = nil
		return nil
	}

	crtc, ok := AsCrtc(target)
	if !ok {
		return fmt.Errorf("%w: CRTC_ID target is not a CRTC", ErrInvalidValue)
	}
	if len(plane.PossibleCrtcs()) > 0 && !containsCrtc(plane.PossibleCrtcs(), crtc) {
		return fmt.Errorf("%w: plane cannot scan out on that CRTC", ErrInvalidValue)
	}

	ps.Crtc = crtc
	cs := state.Crtc(crtc)
	cs.PlaneMask |= 1 << uint(plane.Index)
	cs.PlanesChanged = true
	return nil
}

// pickEncoder chooses the first of the connector's possible encoders
// that can be driven by crtc.
func pickEncoder(conn *Connector, crtc *Crtc) *Encoder {
	for _, enc := range conn.PossibleEncoders() {
		if len(enc.PossibleCrtcs()) == 0 || containsCrtc(enc.PossibleCrtcs(), crtc) {
			return enc
		}
	}
	return nil
}

func containsCrtc(crtcs []*Crtc, c *Crtc) bool {
	for _, v := range crtcs {
		if v == c {
			return true
		}
	}
	return false
}

// Commit hands the bundle to the device backend. At most one
// configuration may be committing per CRTC at a time; Commit blocks
// until every prior commit touching the same CRTCs has completed and
// its state swap has been applied. Configurations touching disjoint
// CRTC sets do not block each other.
//
// Commit returns once the backend accepts the bundle; completion is
// signalled separately, via Complete, when hardware finishes.
func (c *Configuration) Commit(state *AtomicState) error {
	c.state = state
	c.ids = state.crtcIDs()

	for {
		prior := c.dev.claimCrtcs(c, c.ids)
		if prior == nil {
			break
		}
		debug.Printf("commit waiting on in-flight configuration for crtcs %v", c.ids)
		prior.WaitForCompletion()
	}

	if err := c.dev.backend.Program(c, state); err != nil {
		c.dev.releaseCrtcs(c, c.ids)
		c.dev.logger.Error("backend rejected commit: %v", err)
		return fmt.Errorf("program backend: %w", err)
	}
	return nil
}

// Dispose abandons the transaction. The bundle is dropped and no
// object's current snapshot changes.
func (c *Configuration) Dispose() {
	c.state = nil
}

// Complete is called by the backend once hardware has finished applying
// the committed bundle. It installs the proposed snapshots as the
// objects' current state, releases the per-CRTC commit claims, and
// wakes waiters. Calling it more than once is harmless.
func (c *Configuration) Complete() {
	c.once.Do(func() {
		if c.state != nil {
			c.state.install()
			c.dev.releaseCrtcs(c, c.ids)
		}
		close(c.done)
	})
}

// WaitForCompletion blocks until the backend confirms completion. It is
// deliberately not cancellable: a commit that reached hardware always
// finishes, and callers compose deadlines around polling instead.
func (c *Configuration) WaitForCompletion() {
	<-c.done
}
