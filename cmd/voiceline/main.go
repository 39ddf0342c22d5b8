package main

import (
	"bufio"
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/keriat/voiceline/internal/adapters/creds"
	"github.com/keriat/voiceline/internal/adapters/mic"
	"github.com/keriat/voiceline/internal/adapters/rtc"
	"github.com/keriat/voiceline/internal/app/session"
	"github.com/keriat/voiceline/internal/config"
	"github.com/keriat/voiceline/internal/core"
	"github.com/keriat/voiceline/internal/ui"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	_ = godotenv.Load()

	// Initialize zerolog global logger early so everything below can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	endpoint, err := cfg.EndpointURL()
	if err != nil {
		log.Fatal().Err(err).Msg("bad credential endpoint")
	}

	if cfg.ParticipantName == "" {
		cfg.ParticipantName = "guest-" + uuid.NewString()[:8]
	}

	device := mic.New(cfg.CaptureDevice, cfg.NoiseFilter)
	issuer := creds.NewClient(endpoint)
	rooms := core.RoomFactory(func() core.RoomConnection {
		return rtc.NewRoom(rtc.DefaultWebRTCConfig(), device)
	})

	ctrl := session.NewController(issuer, device, rooms)
	defer ctrl.Close()

	render := ui.NewRenderer(os.Stdout)
	redraw := make(chan struct{}, 1)
	ctrl.OnChange(func() {
		select {
		case redraw <- struct{}{}:
		default:
		}
	})

	log.Info().Str("endpoint", endpoint).Str("participant", cfg.ParticipantName).Msg("voiceline started")
	ctrl.CheckPermission(ctx)
	render.Render(ctrl.State())

	lines := make(chan string)
	go func() {
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			lines <- strings.TrimSpace(sc.Text())
		}
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("shutting down")
			return
		case <-redraw:
			render.Render(ctrl.State())
		case line, ok := <-lines:
			if !ok {
				return
			}
			if quit := handleIntent(ctx, ctrl, line); quit {
				return
			}
		}
	}
}

// handleIntent maps a keystroke onto the affordance currently on screen.
func handleIntent(ctx context.Context, ctrl *session.Controller, line string) bool {
	s := ctrl.State()
	switch line {
	case "d":
		ctrl.DismissNotice()
		return false
	case "q", "quit", "exit":
		if ui.View(s.Permission, s.Connection) == ui.AffordanceLive {
			ctrl.Disconnect()
			return false
		}
		return true
	case "":
		switch ui.View(s.Permission, s.Connection) {
		case ui.AffordanceRequestPermission:
			if err := ctrl.RequestPermissionAndConnect(ctx); err != nil {
				log.Warn().Err(err).Msg("start failed")
			}
		case ui.AffordanceStart, ui.AffordanceError:
			if err := ctrl.Connect(ctx); err != nil {
				log.Warn().Err(err).Msg("connect failed")
			}
		}
		return false
	default:
		return false
	}
}
