package drm

import (
	"io"

	"deedles.dev/drm/internal/bin"
)

// Event is a completion record delivered to a session after a page
// flip or modeset finishes on hardware.
type Event struct {
	Cookie    uint64
	CrtcID    uint32
	Timestamp uint64
}

// EventSize is the size of one encoded event record. Reads deliver a
// packed run of whole records and never split one.
const EventSize = 20

// Encode writes the record into p in host byte order. It fails if p
// cannot hold a whole record.
func (ev *Event) Encode(p []byte) error {
	if len(p) < EventSize {
		return io.ErrShortBuffer
	}
	bin.Put64(p[0:], ev.Cookie)
	bin.Put32(p[8:], ev.CrtcID)
	bin.Put64(p[12:], ev.Timestamp)
	return nil
}

// DecodeEvent parses one record from p.
func DecodeEvent(p []byte) (Event, error) {
	if len(p) < EventSize {
		return Event{}, io.ErrUnexpectedEOF
	}
	return Event{
		Cookie:    bin.Get64(p[0:]),
		CrtcID:    bin.Get32(p[8:]),
		Timestamp: bin.Get64(p[12:]),
	}, nil
}
