package drm

// Encoder type codes, mirroring the kernel convention.
const (
	EncoderNone uint32 = iota
	EncoderDAC
	EncoderTMDS
	EncoderLVDS
	EncoderTVDAC
	EncoderVirtual
)

// Encoder converts a CRTC's image into the signal format expected by a
// connector. Together with a Connector it forms what xrandr would call
// an output.
type Encoder struct {
	object

	// Index is the position of this encoder in the device's encoder
	// list, used for membership bitmasks.
	Index int

	encoderType    uint32
	currentCrtc    *Crtc
	possibleCrtcs  []*Crtc
	possibleClones []*Encoder
}

func (e *Encoder) EncoderType() uint32 { return e.encoderType }

func (e *Encoder) CurrentCrtc() *Crtc { return e.currentCrtc }

func (e *Encoder) SetCurrentCrtc(c *Crtc) { e.currentCrtc = c }

// SetPossibleCrtcs records which CRTCs this encoder can be driven by.
// Called once during device enumeration.
func (e *Encoder) SetPossibleCrtcs(crtcs []*Crtc) { e.possibleCrtcs = crtcs }

func (e *Encoder) PossibleCrtcs() []*Crtc { return e.possibleCrtcs }

// SetPossibleClones records which encoders may be active simultaneously
// with this one on the same CRTC.
func (e *Encoder) SetPossibleClones(clones []*Encoder) { e.possibleClones = clones }

func (e *Encoder) PossibleClones() []*Encoder { return e.possibleClones }

func (e *Encoder) Assignments() []Assignment { return nil }
