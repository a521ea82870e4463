package drm

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"deedles.dev/drm/internal/bin"
	"deedles.dev/drm/internal/debug"
	"deedles.dev/drm/internal/idalloc"
	"deedles.dev/xsync/cq"
	"github.com/google/uuid"
	"golang.org/x/exp/slices"
	"golang.org/x/sys/unix"
)

// statusPageSize is the size of the shared status page. Only the
// leading event sequence counter is defined; the rest is reserved.
const statusPageSize = 4096

// File tracks per-session state: the buffer-handle namespace, attached
// framebuffers, and the queue of pending completion events. Handle and
// event state is private to the session and needs no device-wide
// locking.
type File struct {
	dev *Device

	mu           sync.Mutex
	buffers      map[uint32]BufferObject
	handles      *idalloc.Allocator
	frameBuffers []*FrameBuffer
	blocking     bool
	pending      []Event
	sequence     uint64

	queue *cq.BulkQueue[Event, []Event]

	statusFile *os.File
	statusPage []byte
}

// OpenFile opens a new session against the device, with its own handle
// namespace and event queue. Sessions start in blocking mode.
func (d *Device) OpenFile() (*File, error) {
	fd, err := unix.MemfdCreate("drm-status", unix.MFD_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("create status page: %w", err)
	}
	file := os.NewFile(uintptr(fd), "drm-status")
	if err := file.Truncate(statusPageSize); err != nil {
		file.Close()
		return nil, fmt.Errorf("size status page: %w", err)
	}
	page, err := mapShared(file, statusPageSize, unix.PROT_READ|unix.PROT_WRITE)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("map status page: %w", err)
	}

	return &File{
		dev:        d,
		buffers:    make(map[uint32]BufferObject),
		handles:    idalloc.New(1),
		blocking:   true,
		queue:      cq.New(func(v []Event) []Event { return v }),
		statusFile: file,
		statusPage: page,
	}, nil
}

func mapShared(file *os.File, size, prot int) (data []byte, err error) {
	sc, err := file.SyscallConn()
	if err != nil {
		return nil, err
	}

	sc.Control(func(fd uintptr) {
		m, merr := unix.Mmap(int(fd), 0, size, prot, unix.MAP_SHARED)
		data, err = m, merr
	})

	return data, err
}

// Close releases the session's event queue and status page. Buffers
// still parked in the device export table stay claimable.
func (f *File) Close() error {
	f.queue.Stop()

	f.mu.Lock()
	defer f.mu.Unlock()
	var err error
	if f.statusPage != nil {
		err = unix.Munmap(f.statusPage)
		f.statusPage = nil
	}
	if f.statusFile != nil {
		if cerr := f.statusFile.Close(); err == nil {
			err = cerr
		}
		f.statusFile = nil
	}
	return err
}

// SetBlocking switches the session between blocking and non-blocking
// reads.
func (f *File) SetBlocking(blocking bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blocking = blocking
}

// CreateHandle installs bo into this session's handle table and returns
// the fresh handle. The handle never collides with one currently live
// in the same session, and doubles as the virtualized mmap offset token
// for the buffer: the generic memory-map facility routes the offset
// back through AccessMemory.
func (f *File) CreateHandle(bo BufferObject) uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()

	for {
		h := f.handles.Allocate()
		if h == 0 {
			continue
		}
		if _, live := f.buffers[h]; live {
			continue
		}
		f.buffers[h] = bo
		bo.SetupMapping(uint64(h) << 32)
		return h
	}
}

// ResolveHandle looks up a buffer by handle.
func (f *File) ResolveHandle(handle uint32) (BufferObject, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	bo, ok := f.buffers[handle]
	return bo, ok
}

// Handle is the reverse lookup: the handle under which bo is installed
// in this session, if any.
func (f *File) Handle(bo BufferObject) (uint32, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for h, b := range f.buffers {
		if b == bo {
			return h, true
		}
	}
	return 0, false
}

// CloseHandle removes a handle from the session's table. It reports
// whether the handle was live.
func (f *File) CloseHandle(handle uint32) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.buffers[handle]
	delete(f.buffers, handle)
	return ok
}

// AccessMemory resolves a virtualized mmap offset to the backing
// descriptor and the offset within it.
func (f *File) AccessMemory(offset uint64) (*os.File, uint64, bool) {
	bo, ok := f.ResolveHandle(uint32(offset >> 32))
	if !ok {
		return nil, 0, false
	}
	mem, base := bo.Memory()
	return mem, base, true
}

// StatusPageMemory exposes the fixed shared page carrying the event
// sequence counter, for out-of-band polling without a request round
// trip.
func (f *File) StatusPageMemory() *os.File {
	return f.statusFile
}

// EventSequence returns the number of events posted to this session so
// far.
func (f *File) EventSequence() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sequence
}

// AttachFrameBuffer records a framebuffer created by this session.
func (f *File) AttachFrameBuffer(fb *FrameBuffer) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frameBuffers = append(f.frameBuffers, fb)
}

// DetachFrameBuffer forgets a framebuffer created by this session.
func (f *File) DetachFrameBuffer(fb *FrameBuffer) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frameBuffers = slices.DeleteFunc(f.frameBuffers, func(v *FrameBuffer) bool { return v == fb })
}

// FrameBuffers lists the framebuffers created by this session.
func (f *File) FrameBuffers() []*FrameBuffer {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.frameBuffers)
}

// PostEvent appends an event to the session's pending queue, bumps the
// sequence counter on the status page, and wakes a suspended reader.
func (f *File) PostEvent(ev Event) {
	f.mu.Lock()
	f.sequence++
	if f.statusPage != nil {
		bin.Put64(f.statusPage[:8], f.sequence)
	}
	debug.Printf("post event cookie=%v crtc=%v seq=%v", ev.Cookie, ev.CrtcID, f.sequence)
	f.queue.Add() <- ev
	f.mu.Unlock()
}

// drainLocked moves any queued events into the pending slice without
// suspending. Caller holds f.mu.
func (f *File) drainLocked() {
	select {
	case evs := <-f.queue.Get():
		f.pending = append(f.pending, evs...)
	default:
	}
}

// Read dequeues pending events and serializes complete records into p,
// in strict FIFO order, until the queue is empty or the next record
// would not fit. It never emits a partial record: if p cannot hold one
// record, zero bytes are read and no event is consumed.
//
// With an empty queue, Read suspends in blocking mode until PostEvent
// wakes it; in non-blocking mode it returns ErrWouldBlock.
func (f *File) Read(p []byte) (int, error) {
	f.mu.Lock()
	f.drainLocked()
	if len(f.pending) == 0 {
		if !f.blocking {
			f.mu.Unlock()
			return 0, ErrWouldBlock
		}
		f.mu.Unlock()
		evs := <-f.queue.Get()
		f.mu.Lock()
		f.pending = append(f.pending, evs...)
	}
	defer f.mu.Unlock()

	var n int
	for len(f.pending) > 0 && len(p)-n >= EventSize {
		ev := f.pending[0]
		if err := ev.Encode(p[n:]); err != nil {
			return n, err
		}
		f.pending = f.pending[1:]
		n += EventSize
	}
	return n, nil
}

// PollStatus reports whether a read would return events right now.
func (f *File) PollStatus() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.drainLocked()
	return len(f.pending) > 0
}

// PollWait suspends until the session becomes readable or ctx is
// cancelled. Cancellation aborts the wait with ctx's error and no other
// side effects.
func (f *File) PollWait(ctx context.Context) (bool, error) {
	if f.PollStatus() {
		return true, nil
	}

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case evs := <-f.queue.Get():
		f.mu.Lock()
		f.pending = append(f.pending, evs...)
		f.mu.Unlock()
		return true, nil
	}
}

// ExportBufferObject parks the handle's buffer in the device-scoped
// export table under cred, consuming the handle from this session. The
// credential is single-use: exactly one import may claim it.
func (f *File) ExportBufferObject(handle uint32, cred uuid.UUID) error {
	f.mu.Lock()
	bo, ok := f.buffers[handle]
	if !ok {
		f.mu.Unlock()
		return fmt.Errorf("%w: handle %d", ErrNotFound, handle)
	}
	delete(f.buffers, handle)
	f.mu.Unlock()

	f.dev.registerExport(cred, bo, f)
	return nil
}

// ImportBufferObject claims the export matching cred, installing the
// buffer into this session's handle table under a fresh handle. It
// reports failure for credentials never exported or already claimed.
func (f *File) ImportBufferObject(cred uuid.UUID) (BufferObject, uint32, bool) {
	bo, ok := f.dev.claimExport(cred)
	if !ok {
		return nil, 0, false
	}
	return bo, f.CreateHandle(bo), true
}

// RetirePageFlip posts the completion event for a committed
// configuration once the backend confirms it. It runs as an independent
// continuation; the caller of Commit is not blocked and no event is
// posted for a commit that never completes.
func (f *File) RetirePageFlip(cfg *Configuration, cookie uint64, crtcID uint32) {
	go func() {
		cfg.WaitForCompletion()
		f.PostEvent(Event{
			Cookie:    cookie,
			CrtcID:    crtcID,
			Timestamp: uint64(time.Now().UnixNano()),
		})
	}()
}
