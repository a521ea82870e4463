// Command drmdump builds an in-memory display device from a YAML
// topology file, runs one atomic commit against it, and dumps the
// resulting resources and object state. It is a smoke-test harness for
// driver topologies, not a real driver.
package main

import (
	"fmt"
	"os"

	"deedles.dev/drm"
	"deedles.dev/drm/dumb"
	"deedles.dev/drm/log"
	"gopkg.in/yaml.v3"
)

type topology struct {
	Name      string `yaml:"name"`
	MaxWidth  uint32 `yaml:"maxWidth"`
	MaxHeight uint32 `yaml:"maxHeight"`

	Log struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"log"`

	Pipes []pipe `yaml:"pipes"`
}

type pipe struct {
	Connector string `yaml:"connector"`
	Encoder   string `yaml:"encoder"`
	WidthMM   uint32 `yaml:"widthMM"`
	HeightMM  uint32 `yaml:"heightMM"`
	Cursor    bool   `yaml:"cursor"`
}

var connectorTypes = map[string]uint32{
	"VGA":         drm.ConnectorVGA,
	"DVI-D":       drm.ConnectorDVID,
	"LVDS":        drm.ConnectorLVDS,
	"DisplayPort": drm.ConnectorDisplayPort,
	"HDMI-A":      drm.ConnectorHDMIA,
	"eDP":         drm.ConnectorEDP,
	"Virtual":     drm.ConnectorVirtual,
}

var encoderTypes = map[string]uint32{
	"DAC":     drm.EncoderDAC,
	"TMDS":    drm.EncoderTMDS,
	"LVDS":    drm.EncoderLVDS,
	"Virtual": drm.EncoderVirtual,
}

var logLevels = map[string]log.LogLevel{
	"debug": log.Debug,
	"info":  log.Info,
	"warn":  log.Warn,
	"error": log.Error,
}

// softBackend completes every commit immediately; there is no hardware
// to wait for.
type softBackend struct{}

func (softBackend) Program(cfg *drm.Configuration, state *drm.AtomicState) error {
	cfg.Complete()
	return nil
}

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: drmdump <topology.yaml>")
		os.Exit(2)
	}

	data, err := os.ReadFile(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "read topology: %v\n", err)
		os.Exit(1)
	}

	var topo topology
	if err := yaml.Unmarshal(data, &topo); err != nil {
		fmt.Fprintf(os.Stderr, "parse topology: %v\n", err)
		os.Exit(1)
	}
	if len(topo.Pipes) == 0 {
		fmt.Fprintln(os.Stderr, "topology has no pipes")
		os.Exit(1)
	}

	level, ok := logLevels[topo.Log.Level]
	if !ok {
		level = log.Info
	}
	var opts []log.Option
	if topo.Log.File != "" {
		opts = append(opts, log.WithFile(topo.Log.File, log.Rotation{MaxSize: 16, MaxBackups: 2, MaxAge: 7}))
	}
	logger := log.New(topo.Name, level, opts...)

	dev, err := buildDevice(topo, logger)
	if err != nil {
		logger.Fatal("build device: %v", err)
	}

	dumpResources(dev)

	if err := smokeTest(dev, logger); err != nil {
		logger.Fatal("smoke test: %v", err)
	}
}

func buildDevice(topo topology, logger *log.Logger) (*drm.Device, error) {
	maxW, maxH := topo.MaxWidth, topo.MaxHeight
	if maxW == 0 {
		maxW = 4096
	}
	if maxH == 0 {
		maxH = 4096
	}

	dev := drm.NewDevice(softBackend{},
		drm.WithLogger(logger.Named("device")),
		drm.WithSizeLimits(0, maxW, 0, maxH))

	for _, p := range topo.Pipes {
		connType, ok := connectorTypes[p.Connector]
		if !ok {
			return nil, fmt.Errorf("unknown connector type %q", p.Connector)
		}
		encType, ok := encoderTypes[p.Encoder]
		if !ok {
			return nil, fmt.Errorf("unknown encoder type %q", p.Encoder)
		}

		primary := dev.NewPlane(drm.PlanePrimary)
		var cursor *drm.Plane
		if p.Cursor {
			cursor = dev.NewPlane(drm.PlaneCursor)
		}
		crtc := dev.NewCrtc(primary, cursor)
		primary.SetPossibleCrtcs([]*drm.Crtc{crtc})
		if cursor != nil {
			cursor.SetPossibleCrtcs([]*drm.Crtc{crtc})
		}

		enc := dev.NewEncoder(encType)
		enc.SetPossibleCrtcs([]*drm.Crtc{crtc})

		conn := dev.NewConnector(connType)
		conn.SetPossibleEncoders([]*drm.Encoder{enc})
		conn.SetPhysicalDimensions(p.WidthMM, p.HeightMM)
		conn.SetStatus(drm.Connected)

		// No display to ask for modes; synthesize the DMT set.
		conn.SetModeList(drm.AddDmtModes(nil, uint16(maxW), uint16(maxH)))
	}

	return dev, nil
}

func dumpResources(dev *drm.Device) {
	res := dev.Resources()
	fmt.Printf("crtcs:      %v\n", res.Crtcs)
	fmt.Printf("encoders:   %v\n", res.Encoders)
	fmt.Printf("connectors: %v\n", res.Connectors)
	fmt.Printf("planes:     %v\n", res.Planes)
	fmt.Printf("limits:     %dx%d .. %dx%d\n", res.MinWidth, res.MinHeight, res.MaxWidth, res.MaxHeight)

	for _, conn := range dev.Connectors() {
		fmt.Printf("connector %d: %d modes, %dx%dmm\n",
			conn.ID(), len(conn.ModeList()), conn.PhysicalWidth(), conn.PhysicalHeight())
		for _, m := range conn.ModeList() {
			fmt.Printf("  %-12s %dx%d@%d\n", m.NameString(), m.HDisplay, m.VDisplay, m.VRefresh)
		}
	}
}

// smokeTest lights up the first pipe with the first available mode and
// waits for the completion event to come back through a session.
func smokeTest(dev *drm.Device, logger *log.Logger) error {
	file, err := dev.OpenFile()
	if err != nil {
		return err
	}
	defer file.Close()

	conn := dev.Connectors()[0]
	crtc := dev.Crtcs()[0]
	plane := crtc.PrimaryPlane()
	mode := conn.ModeList()[0]

	buf, err := dumb.Create(uint32(mode.HDisplay), uint32(mode.VDisplay), 32)
	if err != nil {
		return err
	}
	defer buf.Destroy()

	handle := file.CreateHandle(buf)
	logger.Info("created dumb buffer handle %d (%d bytes)", handle, buf.Size())

	fb, err := dev.AddFrameBuffer(buf, uint32(mode.HDisplay), uint32(mode.VDisplay), drm.FormatXRGB8888, buf.Pitch(), nil)
	if err != nil {
		return err
	}
	file.AttachFrameBuffer(fb)

	modeBlob := dev.RegisterModeBlob(mode)

	cfg := dev.NewConfiguration()
	state, err := cfg.Capture([]drm.Assignment{
		drm.AssignInt(crtc, dev.Property(drm.PropertyActive), 1),
		drm.AssignBlob(crtc, dev.Property(drm.PropertyModeID), modeBlob),
		drm.AssignObject(conn, dev.Property(drm.PropertyCrtcID), crtc),
		drm.AssignObject(plane, dev.Property(drm.PropertyCrtcID), crtc),
		drm.AssignObject(plane, dev.Property(drm.PropertyFBID), fb),
		drm.AssignInt(plane, dev.Property(drm.PropertySrcW), uint64(mode.HDisplay)),
		drm.AssignInt(plane, dev.Property(drm.PropertySrcH), uint64(mode.VDisplay)),
		drm.AssignInt(plane, dev.Property(drm.PropertyCrtcW), uint64(mode.HDisplay)),
		drm.AssignInt(plane, dev.Property(drm.PropertyCrtcH), uint64(mode.VDisplay)),
	})
	if err != nil {
		return err
	}

	if err := cfg.Commit(state); err != nil {
		return err
	}
	file.RetirePageFlip(cfg, 1, crtc.ID())
	cfg.WaitForCompletion()

	rec := make([]byte, drm.EventSize)
	if _, err := file.Read(rec); err != nil {
		return err
	}
	ev, err := drm.DecodeEvent(rec)
	if err != nil {
		return err
	}
	logger.Info("pipe lit: crtc %d flipped (cookie %d)", ev.CrtcID, ev.Cookie)

	st := crtc.State()
	fmt.Printf("crtc %d: active=%v planes=%#x connectors=%#x\n",
		crtc.ID(), st.Active, st.PlaneMask, st.ConnectorMask)
	return nil
}
