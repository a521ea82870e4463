package drm

// PropertyType describes the domain of a property's values.
type PropertyType int

const (
	// IntProperty values are integers within an inclusive range.
	IntProperty PropertyType = iota
	// EnumProperty values are members of a fixed enumeration.
	EnumProperty
	// BlobProperty values reference a Blob registered on the device.
	BlobProperty
	// ObjectProperty values reference another mode object of a fixed
	// kind, or nothing.
	ObjectProperty
)

// PropertyID identifies one of the standard modesetting properties.
type PropertyID uint32

const (
	PropertySrcX PropertyID = iota
	PropertySrcY
	PropertySrcW
	PropertySrcH
	PropertyCrtcX
	PropertyCrtcY
	PropertyCrtcW
	PropertyCrtcH
	PropertyFBID
	PropertyCrtcID
	PropertyActive
	PropertyModeID
	PropertyDpms
)

// Property describes one configurable attribute of a mode object,
// including the domain its values must lie in.
type Property struct {
	id         PropertyID
	typ        PropertyType
	name       string
	rangeMin   uint64
	rangeMax   uint64
	enumValues map[uint64]string
	objectType ObjectType
}

func newRangeProperty(id PropertyID, name string, min, max uint64) *Property {
	return &Property{id: id, typ: IntProperty, name: name, rangeMin: min, rangeMax: max}
}

func newEnumProperty(id PropertyID, name string, values map[uint64]string) *Property {
	return &Property{id: id, typ: EnumProperty, name: name, enumValues: values}
}

func newBlobProperty(id PropertyID, name string) *Property {
	return &Property{id: id, typ: BlobProperty, name: name}
}

func newObjectProperty(id PropertyID, name string, typ ObjectType) *Property {
	return &Property{id: id, typ: ObjectProperty, name: name, objectType: typ}
}

func (p *Property) PropertyID() PropertyID { return p.id }

func (p *Property) PropertyType() PropertyType { return p.typ }

func (p *Property) Name() string { return p.name }

// Range returns the inclusive value range of an IntProperty.
func (p *Property) Range() (min, max uint64) { return p.rangeMin, p.rangeMax }

// EnumValues returns the value-to-name mapping of an EnumProperty.
func (p *Property) EnumValues() map[uint64]string { return p.enumValues }

// validateInt reports whether v lies in the property's domain.
func (p *Property) validateInt(v uint64) bool {
	switch p.typ {
	case IntProperty:
		return v >= p.rangeMin && v <= p.rangeMax
	case EnumProperty:
		_, ok := p.enumValues[v]
		return ok
	default:
		return false
	}
}

// Assignment is the unit of both reporting current configuration and
// proposing changes: one (object, property, value) triple. Exactly one
// of the value fields is meaningful, determined by the property's type.
type Assignment struct {
	Object   ModeObject
	Property *Property

	IntValue    uint64
	BlobValue   *Blob
	ObjectValue ModeObject
}

// AssignInt builds an assignment of an integer or enum value.
func AssignInt(obj ModeObject, prop *Property, v uint64) Assignment {
	return Assignment{Object: obj, Property: prop, IntValue: v}
}

// AssignBlob builds an assignment referencing a registered blob. A nil
// blob clears the property.
func AssignBlob(obj ModeObject, prop *Property, blob *Blob) Assignment {
	return Assignment{Object: obj, Property: prop, BlobValue: blob}
}

// AssignObject builds an assignment referencing another mode object. A
// nil target clears the property.
func AssignObject(obj ModeObject, prop *Property, target ModeObject) Assignment {
	return Assignment{Object: obj, Property: prop, ObjectValue: target}
}

// Blob is an immutable chunk of property data, such as an encoded mode,
// registered on a Device and referenced by id.
type Blob struct {
	id   uint32
	data []byte
}

func (b *Blob) ID() uint32 { return b.id }

func (b *Blob) Size() int { return len(b.data) }

func (b *Blob) Data() []byte { return b.data }
