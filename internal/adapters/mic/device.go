// Package mic adapts the platform microphone by driving an external ffmpeg
// capture process. The probe/open split mirrors the platform permission
// model: a probe may fail quietly, an open is an explicit user request.
package mic

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/keriat/voiceline/internal/core"
)

const (
	sampleRateHz = 48000
	channels     = 1

	// A capture process that dies this quickly never had the device.
	startupGrace = 250 * time.Millisecond

	probeDuration = "0.1"
)

type Device struct {
	name        string
	noiseFilter bool
	log         zerolog.Logger
}

func New(deviceName string, noiseFilter bool) *Device {
	return &Device{
		name:        deviceName,
		noiseFilter: noiseFilter,
		log:         log.With().Str("module", "mic").Logger(),
	}
}

// inputArgs selects the platform capture backend.
func inputArgs(goos, device string) []string {
	switch goos {
	case "darwin":
		if device == "" {
			device = ":0"
		}
		return []string{"-f", "avfoundation", "-i", device}
	case "windows":
		if device == "" {
			device = "audio=Microphone"
		}
		return []string{"-f", "dshow", "-i", device}
	default:
		if device == "" {
			device = "default"
		}
		return []string{"-f", "alsa", "-i", device}
	}
}

// encodeArgs produces a continuous Ogg/Opus stream on stdout, 20 ms pages
// so the transport can pace samples without buffering.
func encodeArgs(noiseFilter bool) []string {
	args := []string{
		"-ar", fmt.Sprint(sampleRateHz),
		"-ac", fmt.Sprint(channels),
	}
	if noiseFilter {
		args = append(args, "-af", "afftdn")
	}
	return append(args,
		"-c:a", "libopus",
		"-b:a", "32k",
		"-application", "voip",
		"-frame_duration", "20",
		"-page_duration", "20000",
		"-f", "ogg", "-",
	)
}

func probeArgs(goos, device string) []string {
	args := []string{"-hide_banner", "-loglevel", "error"}
	args = append(args, inputArgs(goos, device)...)
	return append(args, "-t", probeDuration, "-f", "null", "-")
}

func captureArgs(goos, device string, noiseFilter bool) []string {
	args := []string{"-hide_banner", "-loglevel", "error"}
	args = append(args, inputArgs(goos, device)...)
	return append(args, encodeArgs(noiseFilter)...)
}

// Probe opens the device for a fraction of a second and releases it.
// Failure is reported to the caller but is not an error condition here:
// probing before user intent is expected to fail.
func (d *Device) Probe(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, "ffmpeg", probeArgs(runtime.GOOS, d.name)...)
	if err := cmd.Run(); err != nil {
		d.log.Debug().Err(err).Msg("capture probe failed")
		return fmt.Errorf("capture probe: %w", err)
	}
	d.log.Debug().Msg("capture probe ok")
	return nil
}

// Open acquires the device and returns the live Ogg/Opus stream. A process
// that exits within the startup grace period is treated as a denial.
func (d *Device) Open(ctx context.Context) (core.CaptureSession, error) {
	cmd := exec.Command("ffmpeg", captureArgs(runtime.GOOS, d.name, d.noiseFilter)...)
	out, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("capture pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("capture start: %w", err)
	}

	s := &session{cmd: cmd, out: out, done: make(chan error, 1)}
	go func() { s.done <- cmd.Wait() }()

	select {
	case err := <-s.done:
		if err == nil {
			err = errors.New("capture exited immediately")
		}
		return nil, fmt.Errorf("capture open: %w", err)
	case <-ctx.Done():
		_ = s.Close()
		return nil, ctx.Err()
	case <-time.After(startupGrace):
	}

	d.log.Info().Bool("noise_filter", d.noiseFilter).Msg("capture started")
	return s, nil
}

type session struct {
	cmd  *exec.Cmd
	out  io.ReadCloser
	done chan error
	once sync.Once
}

func (s *session) Read(p []byte) (int, error) {
	return s.out.Read(p)
}

func (s *session) Close() error {
	s.once.Do(func() {
		if s.cmd.Process != nil {
			_ = s.cmd.Process.Kill()
		}
		_ = s.out.Close()
		<-s.done
	})
	return nil
}
