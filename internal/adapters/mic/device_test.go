package mic

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInputArgs_PlatformDefaults(t *testing.T) {
	req := require.New(t)

	req.Equal([]string{"-f", "avfoundation", "-i", ":0"}, inputArgs("darwin", ""))
	req.Equal([]string{"-f", "alsa", "-i", "default"}, inputArgs("linux", ""))
	req.Equal([]string{"-f", "dshow", "-i", "audio=Microphone"}, inputArgs("windows", ""))

	// An explicit device name passes through untouched.
	req.Equal([]string{"-f", "alsa", "-i", "hw:1,0"}, inputArgs("linux", "hw:1,0"))
}

func TestCaptureArgs_NoiseFilterToggle(t *testing.T) {
	req := require.New(t)

	with := strings.Join(captureArgs("linux", "", true), " ")
	without := strings.Join(captureArgs("linux", "", false), " ")

	req.Contains(with, "-af afftdn")
	req.NotContains(without, "afftdn")

	// Both produce the stream the transport expects.
	for _, args := range []string{with, without} {
		req.Contains(args, "-c:a libopus")
		req.Contains(args, "-ar 48000")
		req.Contains(args, "-ac 1")
		req.Contains(args, "-f ogg")
	}
}

func TestProbeArgs_ShortLivedAndSilent(t *testing.T) {
	req := require.New(t)

	args := strings.Join(probeArgs("linux", ""), " ")

	// The probe acquires the device briefly and writes nothing.
	req.Contains(args, "-t "+probeDuration)
	req.Contains(args, "-f null")
	req.NotContains(args, "libopus")
}
