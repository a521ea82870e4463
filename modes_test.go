package drm_test

import (
	"testing"

	"deedles.dev/drm"
)

func TestNewModeInfoRefresh(t *testing.T) {
	tests := []struct {
		name string
		mode drm.ModeInfo
		want uint32
	}{
		{
			"640x480@60",
			drm.NewModeInfo("640x480", drm.ModeTypeDriver, 25175,
				640, 656, 752, 800, 0, 480, 490, 492, 525, 0,
				drm.ModeFlagNHSync|drm.ModeFlagNVSync),
			60,
		},
		{
			"1920x1080@60",
			drm.NewModeInfo("1920x1080", drm.ModeTypeDriver, 148500,
				1920, 2008, 2052, 2200, 0, 1080, 1084, 1089, 1125, 0,
				drm.ModeFlagPHSync|drm.ModeFlagPVSync),
			60,
		},
		{
			"zero totals",
			drm.NewModeInfo("broken", 0, 25175, 640, 656, 752, 0, 0, 480, 490, 492, 0, 0, 0),
			0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.mode.VRefresh; got != tt.want {
				t.Errorf("VRefresh = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestModeInfoRoundTrip(t *testing.T) {
	m := drm.NewModeInfo("1280x720", drm.ModeTypeDriver|drm.ModeTypePreferred, 74250,
		1280, 1390, 1430, 1650, 0, 720, 725, 730, 750, 0,
		drm.ModeFlagPHSync|drm.ModeFlagPVSync)

	p := m.Encode()
	if len(p) != drm.ModeInfoSize {
		t.Fatalf("encoded size %d, want %d", len(p), drm.ModeInfoSize)
	}

	got, err := drm.DecodeModeInfo(p)
	if err != nil {
		t.Fatal(err)
	}
	if got != m {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, m)
	}
	if got.NameString() != "1280x720" {
		t.Errorf("NameString = %q", got.NameString())
	}

	if _, err := drm.DecodeModeInfo(p[:drm.ModeInfoSize-1]); err == nil {
		t.Error("decode of truncated mode succeeded")
	}
}

func TestAddDmtModes(t *testing.T) {
	// Full set, no preexisting modes.
	all := drm.AddDmtModes(nil, 2560, 1440)
	if len(all) == 0 {
		t.Fatal("no fallback modes produced")
	}
	for _, m := range all {
		if m.HDisplay > 2560 || m.VDisplay > 1440 {
			t.Errorf("mode %s exceeds the size cap", m.NameString())
		}
	}

	// The cap filters out larger timings.
	small := drm.AddDmtModes(nil, 1024, 768)
	for _, m := range small {
		if m.HDisplay > 1024 || m.VDisplay > 768 {
			t.Errorf("mode %s exceeds 1024x768", m.NameString())
		}
	}
	if len(small) >= len(all) {
		t.Errorf("cap did not shrink the set: %d vs %d", len(small), len(all))
	}

	// A preexisting timing with matching geometry and refresh is not
	// duplicated, and stays first.
	seed := []drm.ModeInfo{all[0]}
	merged := drm.AddDmtModes(seed, 2560, 1440)
	if len(merged) != len(all) {
		t.Fatalf("merged %d modes, want %d", len(merged), len(all))
	}
	if merged[0] != all[0] {
		t.Error("preexisting mode displaced from the front")
	}
	count := 0
	for _, m := range merged {
		if m.HDisplay == all[0].HDisplay && m.VDisplay == all[0].VDisplay && m.VRefresh == all[0].VRefresh {
			count++
		}
	}
	if count != 1 {
		t.Errorf("duplicate timing appears %d times", count)
	}
}
