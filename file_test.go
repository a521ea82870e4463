package drm_test

import (
	"context"
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"deedles.dev/drm"
	"github.com/google/uuid"
)

func openTestFile(t *testing.T, dev *drm.Device) *drm.File {
	t.Helper()
	f, err := dev.OpenFile()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func TestReadFIFO(t *testing.T) {
	dev, _ := newTestDevice(t, &fakeBackend{auto: true}, 1)
	f := openTestFile(t, dev)

	for i := uint64(1); i <= 3; i++ {
		f.PostEvent(drm.Event{Cookie: i, CrtcID: uint32(i), Timestamp: i * 100})
	}

	buf := make([]byte, 3*drm.EventSize)
	n, err := f.Read(buf)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3*drm.EventSize {
		t.Fatalf("read %d bytes, want %d", n, 3*drm.EventSize)
	}
	for i := uint64(1); i <= 3; i++ {
		ev, err := drm.DecodeEvent(buf[(i-1)*drm.EventSize:])
		if err != nil {
			t.Fatal(err)
		}
		if ev.Cookie != i {
			t.Errorf("event %d out of order: cookie %d", i, ev.Cookie)
		}
		if ev.Timestamp != i*100 {
			t.Errorf("event %d timestamp %d, want %d", i, ev.Timestamp, i*100)
		}
	}
}

func TestReadNeverSplitsRecords(t *testing.T) {
	dev, _ := newTestDevice(t, &fakeBackend{auto: true}, 1)
	f := openTestFile(t, dev)

	f.PostEvent(drm.Event{Cookie: 1})
	f.PostEvent(drm.Event{Cookie: 2})

	// A buffer too small for one record reads nothing and loses
	// nothing.
	short := make([]byte, drm.EventSize-1)
	if n, err := f.Read(short); n != 0 || err != nil {
		t.Fatalf("short read returned (%d, %v), want (0, nil)", n, err)
	}

	// A buffer for one and a half records returns exactly one.
	buf := make([]byte, drm.EventSize+drm.EventSize/2)
	n, err := f.Read(buf)
	if err != nil {
		t.Fatal(err)
	}
	if n != drm.EventSize {
		t.Fatalf("read %d bytes, want %d", n, drm.EventSize)
	}
	ev, err := drm.DecodeEvent(buf)
	if err != nil {
		t.Fatal(err)
	}
	if ev.Cookie != 1 {
		t.Errorf("got cookie %d, want 1", ev.Cookie)
	}

	// The second event is still there.
	n, err = f.Read(buf)
	if err != nil || n != drm.EventSize {
		t.Fatalf("second read returned (%d, %v)", n, err)
	}
	if ev, _ := drm.DecodeEvent(buf); ev.Cookie != 2 {
		t.Errorf("got cookie %d, want 2", ev.Cookie)
	}
}

func TestReadNonBlocking(t *testing.T) {
	dev, _ := newTestDevice(t, &fakeBackend{auto: true}, 1)
	f := openTestFile(t, dev)
	f.SetBlocking(false)

	if _, err := f.Read(make([]byte, drm.EventSize)); !errors.Is(err, drm.ErrWouldBlock) {
		t.Fatalf("expected ErrWouldBlock, got %v", err)
	}
}

func TestReadBlockingWake(t *testing.T) {
	dev, _ := newTestDevice(t, &fakeBackend{auto: true}, 1)
	f := openTestFile(t, dev)

	got := make(chan drm.Event, 1)
	go func() {
		buf := make([]byte, drm.EventSize)
		if _, err := f.Read(buf); err != nil {
			return
		}
		ev, _ := drm.DecodeEvent(buf)
		got <- ev
	}()

	time.Sleep(20 * time.Millisecond)
	f.PostEvent(drm.Event{Cookie: 7, CrtcID: 3})

	select {
	case ev := <-got:
		if ev.Cookie != 7 || ev.CrtcID != 3 {
			t.Errorf("woke with wrong event: %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("blocking read never woke")
	}
}

func TestPollWait(t *testing.T) {
	dev, _ := newTestDevice(t, &fakeBackend{auto: true}, 1)
	f := openTestFile(t, dev)

	if f.PollStatus() {
		t.Fatal("fresh session is readable")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if ok, err := f.PollWait(ctx); ok || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("cancelled wait returned (%v, %v)", ok, err)
	}

	f.PostEvent(drm.Event{Cookie: 1})
	ok, err := f.PollWait(context.Background())
	if !ok || err != nil {
		t.Fatalf("wait on posted event returned (%v, %v)", ok, err)
	}
	if !f.PollStatus() {
		t.Error("readable session reports no status")
	}
}

func TestHandlesUniqueWhileLive(t *testing.T) {
	dev, _ := newTestDevice(t, &fakeBackend{auto: true}, 1)
	f := openTestFile(t, dev)

	seen := make(map[uint32]bool)
	var handles []uint32
	for i := 0; i < 64; i++ {
		h := f.CreateHandle(&stubBuffer{size: 4096})
		if h == 0 {
			t.Fatal("allocated reserved handle 0")
		}
		if seen[h] {
			t.Fatalf("handle %d allocated twice", h)
		}
		seen[h] = true
		handles = append(handles, h)
	}

	if !f.CloseHandle(handles[0]) {
		t.Fatal("closing a live handle reported dead")
	}
	if f.CloseHandle(handles[0]) {
		t.Fatal("closing a dead handle reported live")
	}

	// A fresh handle may not collide with any still-live one.
	h := f.CreateHandle(&stubBuffer{size: 4096})
	for _, live := range handles[1:] {
		if h == live {
			t.Fatalf("fresh handle %d collides with live handle", h)
		}
	}
}

func TestHandleLookup(t *testing.T) {
	dev, _ := newTestDevice(t, &fakeBackend{auto: true}, 1)
	f := openTestFile(t, dev)

	bo := &stubBuffer{size: 4096}
	h := f.CreateHandle(bo)

	if got, ok := f.ResolveHandle(h); !ok || got != drm.BufferObject(bo) {
		t.Error("ResolveHandle did not return the installed buffer")
	}
	if got, ok := f.Handle(bo); !ok || got != h {
		t.Errorf("reverse lookup returned (%d, %v), want (%d, true)", got, ok, h)
	}
	if _, ok := f.ResolveHandle(h + 100); ok {
		t.Error("resolved a handle that was never created")
	}
}

func TestAccessMemory(t *testing.T) {
	dev, _ := newTestDevice(t, &fakeBackend{auto: true}, 1)
	f := openTestFile(t, dev)

	bo := &stubBuffer{size: 4096}
	h := f.CreateHandle(bo)

	off, ok := bo.Mapping()
	if !ok {
		t.Fatal("CreateHandle did not set up a mapping")
	}
	if off != uint64(h)<<32 {
		t.Fatalf("mapping offset %#x, want %#x", off, uint64(h)<<32)
	}

	if _, _, ok := f.AccessMemory(off); !ok {
		t.Error("AccessMemory rejected a live mapping offset")
	}
	if _, _, ok := f.AccessMemory(uint64(h+1) << 32); ok {
		t.Error("AccessMemory resolved an unmapped offset")
	}
}

func TestExportImportSingleUse(t *testing.T) {
	dev, _ := newTestDevice(t, &fakeBackend{auto: true}, 1)
	src := openTestFile(t, dev)
	dst := openTestFile(t, dev)

	bo := &stubBuffer{size: 1 << 16}
	h := src.CreateHandle(bo)

	cred := uuid.New()
	if err := src.ExportBufferObject(h, cred); err != nil {
		t.Fatal(err)
	}
	// Export consumes the source handle.
	if _, ok := src.ResolveHandle(h); ok {
		t.Error("exported handle still live in the source session")
	}

	got, nh, ok := dst.ImportBufferObject(cred)
	if !ok {
		t.Fatal("import of a fresh credential failed")
	}
	if got != drm.BufferObject(bo) {
		t.Error("import returned a different buffer object")
	}
	if got.Size() != bo.Size() {
		t.Errorf("imported size %d, want %d", got.Size(), bo.Size())
	}
	if _, ok := dst.ResolveHandle(nh); !ok {
		t.Error("import did not install the buffer in the target session")
	}

	// The credential is single-use.
	if _, _, ok := dst.ImportBufferObject(cred); ok {
		t.Error("credential claimed twice")
	}
	if _, _, ok := dst.ImportBufferObject(uuid.New()); ok {
		t.Error("never-exported credential claimed")
	}

	if err := src.ExportBufferObject(h, uuid.New()); !errors.Is(err, drm.ErrNotFound) {
		t.Errorf("re-export of a consumed handle returned %v", err)
	}
}

func TestStatusPageSequence(t *testing.T) {
	dev, _ := newTestDevice(t, &fakeBackend{auto: true}, 1)
	f := openTestFile(t, dev)

	readSeq := func() uint64 {
		var b [8]byte
		if _, err := f.StatusPageMemory().ReadAt(b[:], 0); err != nil {
			t.Fatal(err)
		}
		return binary.NativeEndian.Uint64(b[:])
	}

	if got := readSeq(); got != 0 {
		t.Fatalf("fresh status page sequence %d, want 0", got)
	}

	for i := uint64(1); i <= 5; i++ {
		f.PostEvent(drm.Event{Cookie: i})
		if got := readSeq(); got != i {
			t.Fatalf("status page sequence %d after %d events", got, i)
		}
		if got := f.EventSequence(); got != i {
			t.Fatalf("EventSequence %d after %d events", got, i)
		}
	}
}

func TestRetirePageFlip(t *testing.T) {
	backend := &fakeBackend{}
	dev, pipes := newTestDevice(t, backend, 1)
	p := pipes[0]
	f := openTestFile(t, dev)
	fb := testFrameBuffer(t, dev)
	mode := testModeBlob(dev)

	cfg := dev.NewConfiguration()
	state, err := cfg.Capture(lightUp(dev, p, fb, mode))
	if err != nil {
		t.Fatal(err)
	}
	if err := cfg.Commit(state); err != nil {
		t.Fatal(err)
	}

	f.RetirePageFlip(cfg, 42, p.crtc.ID())

	time.Sleep(20 * time.Millisecond)
	if f.PollStatus() {
		t.Fatal("flip event posted before the backend completed")
	}

	cfg.Complete()

	ok, err := f.PollWait(context.Background())
	if !ok || err != nil {
		t.Fatalf("PollWait returned (%v, %v)", ok, err)
	}
	buf := make([]byte, drm.EventSize)
	if _, err := f.Read(buf); err != nil {
		t.Fatal(err)
	}
	ev, err := drm.DecodeEvent(buf)
	if err != nil {
		t.Fatal(err)
	}
	if ev.Cookie != 42 || ev.CrtcID != p.crtc.ID() {
		t.Errorf("flip event %+v, want cookie 42 crtc %d", ev, p.crtc.ID())
	}
	if ev.Timestamp == 0 {
		t.Error("flip event carries no timestamp")
	}
}

func TestSessionFrameBuffers(t *testing.T) {
	dev, _ := newTestDevice(t, &fakeBackend{auto: true}, 1)
	f := openTestFile(t, dev)
	fb := testFrameBuffer(t, dev)

	f.AttachFrameBuffer(fb)
	if got := f.FrameBuffers(); len(got) != 1 || got[0] != fb {
		t.Fatalf("attached framebuffers = %v", got)
	}

	f.DetachFrameBuffer(fb)
	if got := f.FrameBuffers(); len(got) != 0 {
		t.Fatalf("framebuffers after detach = %v", got)
	}
}
