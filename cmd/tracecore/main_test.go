package main

import (
	"errors"
	"testing"

	"github.com/voxelforge/tracecore/sceneio"
)

func TestExitCodeForDistinguishesLoadFromInternalErrors(t *testing.T) {
	if got := exitCodeFor(loadError{errors.New("bad scene")}); got != 1 {
		t.Errorf("exitCodeFor(loadError) = %d, want 1", got)
	}
	if got := exitCodeFor(errors.New("render loop panic")); got != 2 {
		t.Errorf("exitCodeFor(generic error) = %d, want 2", got)
	}
}

func TestDefaultExtensionMatchesOutputMode(t *testing.T) {
	cases := []struct {
		mode sceneio.OutputMode
		want string
	}{
		{sceneio.OutputPNG, ".png"},
		{sceneio.OutputTIFF32, ".tiff"},
		{sceneio.OutputPFM, ".pfm"},
	}
	for _, c := range cases {
		if got := defaultExtension(c.mode); got != c.want {
			t.Errorf("defaultExtension(%v) = %q, want %q", c.mode, got, c.want)
		}
	}
}

func TestModeFromExtensionOverridesFallback(t *testing.T) {
	cases := []struct {
		path     string
		fallback sceneio.OutputMode
		want     sceneio.OutputMode
	}{
		{"out.tiff", sceneio.OutputPNG, sceneio.OutputTIFF32},
		{"out.pfm", sceneio.OutputPNG, sceneio.OutputPFM},
		{"out.png", sceneio.OutputTIFF32, sceneio.OutputPNG},
		{"out.unknown", sceneio.OutputTIFF32, sceneio.OutputTIFF32},
	}
	for _, c := range cases {
		if got := modeFromExtension(c.path, c.fallback); got != c.want {
			t.Errorf("modeFromExtension(%q, %v) = %v, want %v", c.path, c.fallback, got, c.want)
		}
	}
}
