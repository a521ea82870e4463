package drm

// FrameBuffer describes a region of memory as a displayable image:
// format, pitch and dimensions over a BufferObject.
type FrameBuffer struct {
	object

	buffer BufferObject
	width  uint32
	height uint32
	format uint32
	pitch  uint32
	dirty  func()
}

func (fb *FrameBuffer) Buffer() BufferObject { return fb.buffer }

func (fb *FrameBuffer) Width() uint32 { return fb.width }

func (fb *FrameBuffer) Height() uint32 { return fb.height }

func (fb *FrameBuffer) Format() uint32 { return fb.format }

func (fb *FrameBuffer) Pitch() uint32 { return fb.pitch }

// NotifyDirty tells the owning driver that the framebuffer's contents
// changed and a non-flipping display should refresh from it.
func (fb *FrameBuffer) NotifyDirty() {
	if fb.dirty != nil {
		fb.dirty()
	}
}

func (fb *FrameBuffer) Assignments() []Assignment { return nil }
