// screenhero-host captures a display, encodes it, and streams it to one
// or more viewers over UDP, exposing a small status/control HTTP
// surface and (optionally) starting an mDNS responder. CLI flags
// match spec.md §6's host surface exactly; this is the one place flags
// are parsed with the standard library rather than a third-party CLI
// framework (see DESIGN.md).
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/bsod90/screenhero-sub001/pkg/capture"
	"github.com/bsod90/screenhero-sub001/pkg/codec"
	"github.com/bsod90/screenhero-sub001/pkg/config"
	"github.com/bsod90/screenhero-sub001/pkg/discovery"
	"github.com/bsod90/screenhero-sub001/pkg/input"
	"github.com/bsod90/screenhero-sub001/pkg/inputinject"
	"github.com/bsod90/screenhero-sub001/pkg/media"
	"github.com/bsod90/screenhero-sub001/pkg/pairing"
	"github.com/bsod90/screenhero-sub001/pkg/pipeline"
	"github.com/bsod90/screenhero-sub001/pkg/stats"
	"github.com/bsod90/screenhero-sub001/pkg/statusapi"
	"github.com/bsod90/screenhero-sub001/pkg/transport"
)

func main() {
	defaults, err := config.LoadHostConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "screenhero-host: load config: %v\n", err)
		os.Exit(1)
	}

	port := flag.Int("p", defaults.Port, "UDP port to listen/send on")
	width := flag.Int("w", defaults.Width, "capture width")
	height := flag.Int("h", defaults.Height, "capture height")
	fps := flag.Int("f", defaults.FPS, "capture frame rate")
	bitrateMbps := flag.Int("b", defaults.BitrateMbps, "target bitrate, Mbps")
	codecName := flag.String("c", defaults.Codec, "video codec: h264, hevc or passthrough")
	keyframeInterval := flag.Int("k", defaults.KeyframeInterval, "frames between forced keyframes")
	displayIndex := flag.Int("d", defaults.DisplayIndex, "capture display index")
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	parsedCodec, err := media.ParseCodec(*codecName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "screenhero-host: %v\n", err)
		flag.Usage()
		os.Exit(1)
	}

	cfg := media.StreamConfig{
		Width:            *width,
		Height:           *height,
		FPS:              *fps,
		Codec:            parsedCodec,
		Bitrate:          *bitrateMbps * 1_000_000,
		KeyframeInterval: *keyframeInterval,
		MaxPacketSize:    media.DefaultMTU,
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "screenhero-host: %v\n", err)
		os.Exit(1)
	}
	displayRect := input.Rect{X: 0, Y: 0, W: float64(cfg.Width), H: float64(cfg.Height)}

	secret, err := pairing.LoadOrCreateHostSecret(defaults.HostSecretPath)
	if err != nil {
		log.Error().Err(err).Msg("load host secret")
		os.Exit(1)
	}
	hostID, err := os.Hostname()
	if err != nil || hostID == "" {
		hostID = "screenhero-host"
	}
	pairMgr, err := pairing.NewManager(secret, hostID)
	if err != nil {
		log.Error().Err(err).Msg("start pairing manager")
		os.Exit(1)
	}
	defer pairMgr.Close()

	sessionStats := &stats.SessionStats{}
	status := statusapi.NewServer(sessionStats, pairMgr)
	statusAddr := fmt.Sprintf(":%d", defaults.StatusPort)
	go func() {
		log.Info().Str("addr", statusAddr).Msg("status API listening")
		if err := http.ListenAndServe(statusAddr, status.Router()); err != nil {
			log.Error().Err(err).Msg("status API exited")
		}
	}()

	conn, dest, err := transport.DialUnicast(fmt.Sprintf(":%d", *port), fmt.Sprintf("0.0.0.0:%d", *port))
	if err != nil {
		log.Error().Err(err).Msg("open transport socket")
		os.Exit(1)
	}
	sender := transport.NewSender(conn, dest, cfg.MaxPacketSize, logger)

	source := capture.NewGstFrameSource(uint32(*displayIndex), cfg.Width, cfg.Height, cfg.FPS)
	encoder := selectEncoder(cfg)

	dbusCtx, dbusCancel := context.WithTimeout(context.Background(), 10*time.Second)
	dbusSession, err := inputinject.ConnectDBusSession(dbusCtx)
	dbusCancel()
	if err != nil {
		log.Warn().Err(err).Msg("Mutter RemoteDesktop D-Bus session unavailable, input falls back to ydotool")
	}
	injector := inputinject.NewInjector(dbusSession, displayRect)

	host, err := pipeline.NewHost(cfg, pipeline.HostDeps{
		Source:   source,
		Encoder:  encoder,
		Sender:   sender,
		Injector: injector,
		Stats:    sessionStats,
		Logger:   logger,
	})
	if err != nil {
		log.Error().Err(err).Msg("construct host pipeline")
		os.Exit(1)
	}

	receiver := transport.NewReceiver(conn, time.Duration(cfg.FrameInterval()), transport.DefaultReassemblyCapacity, transport.Handlers{
		OnInputEvent: host.OnInputEvent,
		OnConfigMsg:  host.OnConfigUpdate,
	}, logger)
	host.AttachReceiver(receiver)

	if defaults.Advertise {
		advCtx, advCancel := context.WithTimeout(context.Background(), 5*time.Second)
		txt := discovery.TXTFromHostConfig(hostID, cfg.Width, cfg.Height, cfg.FPS, parsedCodec.String())
		adv, err := discovery.NewAdvertiser(advCtx, txt)
		advCancel()
		if err != nil {
			log.Warn().Err(err).Msg("mDNS advertise failed, continuing without discovery")
		} else {
			defer adv.Stop()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().Int("port", *port).Int("width", cfg.Width).Int("height", cfg.Height).Str("codec", parsedCodec.String()).Msg("screenhero-host starting")
	if err := host.Run(ctx); err != nil {
		log.Error().Err(err).Msg("host pipeline exited")
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()
	_ = host.Stop(stopCtx)
}

// selectEncoder picks the in-process passthrough codec when explicitly
// configured, otherwise the GStreamer hardware encoder (a no-op stub
// returning codec.ErrCGORequired on a binary built without cgo), per
// spec.md §4.2b.
func selectEncoder(cfg media.StreamConfig) codec.Encoder {
	if cfg.Codec == media.CodecPassthrough {
		return codec.NewPassthroughEncoder()
	}
	return codec.NewGstEncoder()
}
