package drm

// ObjectType tags the concrete kind of a ModeObject. All object kinds
// share a single id space within one Device.
type ObjectType uint32

const (
	ObjectEncoder ObjectType = iota
	ObjectConnector
	ObjectCrtc
	ObjectFrameBuffer
	ObjectPlane
)

func (t ObjectType) String() string {
	switch t {
	case ObjectEncoder:
		return "encoder"
	case ObjectConnector:
		return "connector"
	case ObjectCrtc:
		return "crtc"
	case ObjectFrameBuffer:
		return "framebuffer"
	case ObjectPlane:
		return "plane"
	default:
		return "unknown"
	}
}

// ModeObject is implemented by all modesetting objects visible to
// sessions: Connector, Crtc, Encoder, FrameBuffer and Plane.
type ModeObject interface {
	ID() uint32
	Type() ObjectType

	// Assignments reports the object's currently-active configuration
	// as a list of property assignments.
	Assignments() []Assignment
}

// object is the common base embedded by every concrete mode object.
type object struct {
	id  uint32
	typ ObjectType
	dev *Device
}

func (o *object) ID() uint32 { return o.id }

func (o *object) Type() ObjectType { return o.typ }

// The downcasts below check the type tag; the tag is the discriminant.
// A mismatched kind yields (nil, false) rather than a panic.

func AsEncoder(obj ModeObject) (*Encoder, bool) {
	if obj == nil || obj.Type() != ObjectEncoder {
		return nil, false
	}
	e, ok := obj.(*Encoder)
	return e, ok
}

func AsConnector(obj ModeObject) (*Connector, bool) {
	if obj == nil || obj.Type() != ObjectConnector {
		return nil, false
	}
	c, ok := obj.(*Connector)
	return c, ok
}

func AsCrtc(obj ModeObject) (*Crtc, bool) {
	if obj == nil || obj.Type() != ObjectCrtc {
		return nil, false
	}
	c, ok := obj.(*Crtc)
	return c, ok
}

func AsFrameBuffer(obj ModeObject) (*FrameBuffer, bool) {
	if obj == nil || obj.Type() != ObjectFrameBuffer {
		return nil, false
	}
	fb, ok := obj.(*FrameBuffer)
	return fb, ok
}

func AsPlane(obj ModeObject) (*Plane, bool) {
	if obj == nil || obj.Type() != ObjectPlane {
		return nil, false
	}
	p, ok := obj.(*Plane)
	return p, ok
}
