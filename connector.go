package drm

import "sync/atomic"

// Connector status codes.
const (
	Connected         uint32 = 1
	Disconnected      uint32 = 2
	UnknownConnection uint32 = 3
)

// Connector type codes, mirroring the kernel convention.
const (
	ConnectorUnknown uint32 = iota
	ConnectorVGA
	ConnectorDVII
	ConnectorDVID
	ConnectorDVIA
	ConnectorComposite
	ConnectorSVideo
	ConnectorLVDS
	ConnectorComponent
	ConnectorDIN
	ConnectorDisplayPort
	ConnectorHDMIA
	ConnectorHDMIB
	ConnectorTV
	ConnectorEDP
	ConnectorVirtual
)

// DPMS power levels.
const (
	DpmsOn uint32 = iota
	DpmsStandby
	DpmsSuspend
	DpmsOff
)

// Connector represents a physical display output port. It transmits
// the signal to the display, reports connection status, and exposes the
// display's supported modes.
type Connector struct {
	object

	// Index is the position of this connector in the device's
	// connector list, used for membership bitmasks.
	Index int

	modes            []ModeInfo
	currentEncoder   *Encoder
	status           uint32
	possibleEncoders []*Encoder
	physicalWidth    uint32
	physicalHeight   uint32
	subpixel         uint32
	connectorType    uint32

	state atomic.Pointer[ConnectorState]
}

// ConnectorState is an immutable snapshot of a connector's
// configuration.
type ConnectorState struct {
	Connector *Connector
	Crtc      *Crtc
	Encoder   *Encoder
	Dpms      uint32
}

func (s *ConnectorState) clone() *ConnectorState {
	c := *s
	return &c
}

// ModeList returns the modes the attached display reports, or the
// synthesized fallback list when the display reports none.
func (c *Connector) ModeList() []ModeInfo { return c.modes }

func (c *Connector) SetModeList(modes []ModeInfo) { c.modes = modes }

func (c *Connector) CurrentEncoder() *Encoder { return c.currentEncoder }

func (c *Connector) SetCurrentEncoder(e *Encoder) { c.currentEncoder = e }

func (c *Connector) Status() uint32 { return c.status }

func (c *Connector) SetStatus(status uint32) { c.status = status }

func (c *Connector) SetPossibleEncoders(encoders []*Encoder) { c.possibleEncoders = encoders }

func (c *Connector) PossibleEncoders() []*Encoder { return c.possibleEncoders }

// SetPhysicalDimensions records the display's physical size in
// millimeters.
func (c *Connector) SetPhysicalDimensions(width, height uint32) {
	c.physicalWidth = width
	c.physicalHeight = height
}

func (c *Connector) PhysicalWidth() uint32 { return c.physicalWidth }

func (c *Connector) PhysicalHeight() uint32 { return c.physicalHeight }

func (c *Connector) SetSubpixel(subpixel uint32) { c.subpixel = subpixel }

func (c *Connector) Subpixel() uint32 { return c.subpixel }

func (c *Connector) ConnectorType() uint32 { return c.connectorType }

// State returns the currently-active snapshot.
func (c *Connector) State() *ConnectorState { return c.state.Load() }

func (c *Connector) setState(s *ConnectorState) { c.state.Store(s) }

func (c *Connector) Assignments() []Assignment {
	st := c.State()
	var crtc ModeObject
	if st.Crtc != nil {
		crtc = st.Crtc
	}
	return []Assignment{
		AssignObject(c, c.dev.Property(PropertyCrtcID), crtc),
		AssignInt(c, c.dev.Property(PropertyDpms), uint64(st.Dpms)),
	}
}
