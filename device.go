package drm

import (
	"fmt"
	"sync"

	"deedles.dev/drm/internal/idalloc"
	"deedles.dev/drm/log"
	"github.com/google/uuid"
	"github.com/tidwall/btree"
)

// Backend programs device-specific hardware state. The core hands it a
// captured bundle via Program; the backend must call the
// configuration's Complete method once the hardware has actually
// finished applying the change (for example, once the display has
// flipped). Returning an error from Program means the change never
// reached hardware and Complete must not be called.
type Backend interface {
	Program(cfg *Configuration, state *AtomicState) error
}

// Device owns the mode object graph, the shared id space, the blob
// registry and the cross-session buffer export table.
type Device struct {
	backend Backend
	logger  *log.Logger

	mu      sync.Mutex
	objects btree.Map[uint32, ModeObject]
	ids     *idalloc.Allocator
	blobs   map[uint32]*Blob
	exports map[uuid.UUID]exportEntry
	pending map[uint32]*Configuration

	crtcs      []*Crtc
	encoders   []*Encoder
	connectors []*Connector
	planes     []*Plane

	minWidth, maxWidth   uint32
	minHeight, maxHeight uint32
}

type exportEntry struct {
	buffer BufferObject
	owner  *File
}

// Option configures a Device at construction.
type Option func(*Device)

// WithLogger sets the device's logger.
func WithLogger(l *log.Logger) Option {
	return func(d *Device) { d.logger = l }
}

// WithSizeLimits sets the framebuffer dimensions the device accepts.
func WithSizeLimits(minW, maxW, minH, maxH uint32) Option {
	return func(d *Device) {
		d.minWidth, d.maxWidth = minW, maxW
		d.minHeight, d.maxHeight = minH, maxH
	}
}

// NewDevice creates an empty device served by backend. Drivers then
// populate the object graph with NewPlane, NewCrtc, NewEncoder and
// NewConnector during enumeration.
func NewDevice(backend Backend, opts ...Option) *Device {
	d := &Device{
		backend:   backend,
		logger:    log.Discard(),
		ids:       idalloc.New(1),
		blobs:     make(map[uint32]*Blob),
		exports:   make(map[uuid.UUID]exportEntry),
		pending:   make(map[uint32]*Configuration),
		maxWidth:  16384,
		maxHeight: 16384,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// register assigns an id from the shared space and adds the object to
// the registry. Caller holds d.mu.
func (d *Device) register(obj ModeObject, o *object, typ ObjectType) {
	o.id = d.ids.Allocate()
	o.typ = typ
	o.dev = d
	d.objects.Set(o.id, obj)
}

// NewPlane creates and registers a plane of the given type.
func (d *Device) NewPlane(typ PlaneType) *Plane {
	d.mu.Lock()
	defer d.mu.Unlock()

	p := &Plane{planeType: typ, Index: len(d.planes)}
	d.register(p, &p.object, ObjectPlane)
	p.setState(&PlaneState{Plane: p})
	d.planes = append(d.planes, p)
	return p
}

// NewCrtc creates and registers a CRTC scanning out through primary.
// cursor may be nil for hardware without a cursor plane.
func (d *Device) NewCrtc(primary, cursor *Plane) *Crtc {
	d.mu.Lock()
	defer d.mu.Unlock()

	c := &Crtc{primary: primary, cursor: cursor, Index: len(d.crtcs)}
	d.register(c, &c.object, ObjectCrtc)
	c.setState(&CrtcState{Crtc: c})
	d.crtcs = append(d.crtcs, c)
	return c
}

// NewEncoder creates and registers an encoder of the given signal type.
func (d *Device) NewEncoder(encoderType uint32) *Encoder {
	d.mu.Lock()
	defer d.mu.Unlock()

	e := &Encoder{encoderType: encoderType, Index: len(d.encoders)}
	d.register(e, &e.object, ObjectEncoder)
	d.encoders = append(d.encoders, e)
	return e
}

// NewConnector creates and registers a connector of the given port
// type.
func (d *Device) NewConnector(connectorType uint32) *Connector {
	d.mu.Lock()
	defer d.mu.Unlock()

	c := &Connector{connectorType: connectorType, status: UnknownConnection, Index: len(d.connectors)}
	d.register(c, &c.object, ObjectConnector)
	c.setState(&ConnectorState{Connector: c, Dpms: DpmsOff})
	d.connectors = append(d.connectors, c)
	return c
}

// AddFrameBuffer registers a framebuffer over bo, validating the
// declared layout against the format's bytes per pixel and the buffer's
// size. dirty, if non-nil, is invoked on NotifyDirty.
func (d *Device) AddFrameBuffer(bo BufferObject, width, height, format, pitch uint32, dirty func()) (*FrameBuffer, error) {
	info, ok := GetFormatInfo(format)
	if !ok {
		return nil, fmt.Errorf("%w: %#08x", ErrUnsupportedFormat, format)
	}
	if width < d.minWidth || width > d.maxWidth || height < d.minHeight || height > d.maxHeight {
		return nil, fmt.Errorf("%w: %dx%d out of device limits", ErrInvalidArgument, width, height)
	}
	if uint64(pitch) < uint64(width)*uint64(info.CPP) {
		return nil, fmt.Errorf("%w: pitch %d cannot hold width %d", ErrInvalidArgument, pitch, width)
	}
	if bo.Size() < uint64(pitch)*uint64(height) {
		return nil, fmt.Errorf("%w: buffer smaller than %d*%d", ErrInvalidArgument, pitch, height)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	fb := &FrameBuffer{buffer: bo, width: width, height: height, format: format, pitch: pitch, dirty: dirty}
	d.register(fb, &fb.object, ObjectFrameBuffer)
	d.logger.Debug("added framebuffer %d (%dx%d, pitch %d)", fb.id, width, height, pitch)
	return fb, nil
}

// RemoveFrameBuffer drops fb from the registry. Its id is never
// reused.
func (d *Device) RemoveFrameBuffer(fb *FrameBuffer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.objects.Delete(fb.ID())
}

// Object resolves an id to a mode object of any kind.
func (d *Device) Object(id uint32) (ModeObject, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.objects.Get(id)
}

// FindObject resolves (id, expected type) to an object reference. It
// reports absence both for unknown ids and for type mismatches.
func (d *Device) FindObject(id uint32, typ ObjectType) (ModeObject, bool) {
	obj, ok := d.Object(id)
	if !ok || obj.Type() != typ {
		return nil, false
	}
	return obj, true
}

// ObjectAssignments reports the current configuration of the object
// with the given id as an assignment list, delegating to the object.
func (d *Device) ObjectAssignments(id uint32) ([]Assignment, error) {
	obj, ok := d.Object(id)
	if !ok {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return obj.Assignments(), nil
}

func (d *Device) Crtcs() []*Crtc { return d.crtcs }

func (d *Device) Encoders() []*Encoder { return d.encoders }

func (d *Device) Connectors() []*Connector { return d.connectors }

func (d *Device) Planes() []*Plane { return d.planes }

// Resources enumerates the device's object ids in id order, plus its
// framebuffer size limits.
type Resources struct {
	Fbs        []uint32
	Crtcs      []uint32
	Connectors []uint32
	Encoders   []uint32
	Planes     []uint32

	MinWidth, MaxWidth   uint32
	MinHeight, MaxHeight uint32
}

func (d *Device) Resources() Resources {
	d.mu.Lock()
	defer d.mu.Unlock()

	res := Resources{
		MinWidth:  d.minWidth,
		MaxWidth:  d.maxWidth,
		MinHeight: d.minHeight,
		MaxHeight: d.maxHeight,
	}
	d.objects.Scan(func(id uint32, obj ModeObject) bool {
		switch obj.Type() {
		case ObjectFrameBuffer:
			res.Fbs = append(res.Fbs, id)
		case ObjectCrtc:
			res.Crtcs = append(res.Crtcs, id)
		case ObjectConnector:
			res.Connectors = append(res.Connectors, id)
		case ObjectEncoder:
			res.Encoders = append(res.Encoders, id)
		case ObjectPlane:
			res.Planes = append(res.Planes, id)
		}
		return true
	})
	return res
}

// RegisterBlob registers property data and assigns it an id from the
// shared id space.
func (d *Device) RegisterBlob(data []byte) *Blob {
	d.mu.Lock()
	defer d.mu.Unlock()

	b := &Blob{id: d.ids.Allocate(), data: data}
	d.blobs[b.id] = b
	return b
}

// RegisterModeBlob encodes a mode and registers it as a blob, for use
// with the MODE_ID property.
func (d *Device) RegisterModeBlob(m ModeInfo) *Blob {
	return d.RegisterBlob(m.Encode())
}

// FindBlob resolves a blob id.
func (d *Device) FindBlob(id uint32) (*Blob, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	b, ok := d.blobs[id]
	return b, ok
}

// Property returns one of the standard property descriptors.
func (d *Device) Property(id PropertyID) *Property {
	return standardProperties[id]
}

// registerExport parks a buffer in the export table under cred.
func (d *Device) registerExport(cred uuid.UUID, bo BufferObject, owner *File) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.exports[cred] = exportEntry{buffer: bo, owner: owner}
	d.logger.Debug("exported buffer under credential %s", cred)
}

// claimExport atomically removes and returns the export matching cred.
// Each credential can be claimed at most once.
func (d *Device) claimExport(cred uuid.UUID) (BufferObject, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	ent, ok := d.exports[cred]
	if !ok {
		return nil, false
	}
	delete(d.exports, cred)
	return ent.buffer, true
}

// claimCrtcs installs cfg as the committing configuration for every
// CRTC in ids. If any CRTC already has an in-flight commit, nothing is
// claimed and that commit is returned so the caller can wait on it.
func (d *Device) claimCrtcs(cfg *Configuration, ids []uint32) *Configuration {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, id := range ids {
		if prior := d.pending[id]; prior != nil && prior != cfg {
			return prior
		}
	}
	for _, id := range ids {
		d.pending[id] = cfg
	}
	return nil
}

// releaseCrtcs removes cfg's claim on the given CRTCs.
func (d *Device) releaseCrtcs(cfg *Configuration, ids []uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, id := range ids {
		if d.pending[id] == cfg {
			delete(d.pending, id)
		}
	}
}

// standardProperties is the fixed set of modesetting properties. The
// descriptors are shared by all devices.
var standardProperties = map[PropertyID]*Property{
	PropertySrcX:   newRangeProperty(PropertySrcX, "SRC_X", 0, 1<<31),
	PropertySrcY:   newRangeProperty(PropertySrcY, "SRC_Y", 0, 1<<31),
	PropertySrcW:   newRangeProperty(PropertySrcW, "SRC_W", 0, 1<<31),
	PropertySrcH:   newRangeProperty(PropertySrcH, "SRC_H", 0, 1<<31),
	PropertyCrtcX:  newRangeProperty(PropertyCrtcX, "CRTC_X", 0, 1<<32-1),
	PropertyCrtcY:  newRangeProperty(PropertyCrtcY, "CRTC_Y", 0, 1<<32-1),
	PropertyCrtcW:  newRangeProperty(PropertyCrtcW, "CRTC_W", 0, 1<<31),
	PropertyCrtcH:  newRangeProperty(PropertyCrtcH, "CRTC_H", 0, 1<<31),
	PropertyFBID:   newObjectProperty(PropertyFBID, "FB_ID", ObjectFrameBuffer),
	PropertyCrtcID: newObjectProperty(PropertyCrtcID, "CRTC_ID", ObjectCrtc),
	PropertyActive: newRangeProperty(PropertyActive, "ACTIVE", 0, 1),
	PropertyModeID: newBlobProperty(PropertyModeID, "MODE_ID"),
	PropertyDpms: newEnumProperty(PropertyDpms, "DPMS", map[uint64]string{
		uint64(DpmsOn):      "On",
		uint64(DpmsStandby): "Standby",
		uint64(DpmsSuspend): "Suspend",
		uint64(DpmsOff):     "Off",
	}),
}
