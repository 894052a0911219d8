// screenhero-viewer connects to a screenhero-host, decodes its video
// stream, and renders it into a window, forwarding local input back to
// the host. CLI flags match spec.md §6's viewer surface exactly; this
// is the one place flags are parsed with the standard library rather
// than a third-party CLI framework (see DESIGN.md).
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

	"github.com/bsod90/screenhero-sub001/pkg/codec"
	"github.com/bsod90/screenhero-sub001/pkg/config"
	"github.com/bsod90/screenhero-sub001/pkg/input"
	"github.com/bsod90/screenhero-sub001/pkg/media"
	"github.com/bsod90/screenhero-sub001/pkg/pairing"
	"github.com/bsod90/screenhero-sub001/pkg/pipeline"
	"github.com/bsod90/screenhero-sub001/pkg/render"
	"github.com/bsod90/screenhero-sub001/pkg/stats"
	"github.com/bsod90/screenhero-sub001/pkg/statusapi"
	"github.com/bsod90/screenhero-sub001/pkg/transport"
)

// windowDrawerAdapter is a placeholder render.Drawer for headless/CI
// runs; a real platform window surface (GPU texture upload + draw) is a
// collaborator outside this module's scope (spec.md §1).
type windowDrawerAdapter struct {
	logger *slog.Logger
}

func (d *windowDrawerAdapter) Draw(frame media.DecodedFrame, rect input.Rect) {
	d.logger.Debug("frame ready to present", "frame_id", frame.FrameID, "rect", rect)
}

func main() {
	defaults, err := config.LoadViewerConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "screenhero-viewer: load config: %v\n", err)
		os.Exit(1)
	}

	host := flag.String("h", defaults.Host, "host address to connect to")
	port := flag.Int("p", defaults.Port, "UDP port the host listens on")
	windowWidth := flag.Int("w", defaults.WindowWidth, "window width")
	windowHeight := flag.Int("H", defaults.WindowHeight, "window height")
	fullscreen := flag.Bool("f", defaults.Fullscreen, "start fullscreen")
	flag.Parse()

	if *host == "" {
		fmt.Fprintln(os.Stderr, "screenhero-viewer: -h host is required")
		flag.Usage()
		os.Exit(1)
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	tokenStore, err := pairing.LoadTokenStore(defaults.TokenStorePath)
	if err != nil {
		log.Error().Err(err).Msg("load token store")
		os.Exit(1)
	}
	if _, ok := tokenStore.Get(*host); !ok {
		log.Warn().Str("host", *host).Msg("no stored auth token for this host; pair via the status API before connecting")
	}

	sessionStats := &stats.SessionStats{}
	status := statusapi.NewServer(sessionStats, nil)
	statusAddr := fmt.Sprintf(":%d", defaults.StatusPort)
	go func() {
		log.Info().Str("addr", statusAddr).Msg("status API listening")
		if err := http.ListenAndServe(statusAddr, status.Router()); err != nil {
			log.Error().Err(err).Msg("status API exited")
		}
	}()

	peerAddr := fmt.Sprintf("%s:%d", *host, *port)
	conn, dest, err := transport.DialUnicast(fmt.Sprintf(":%d", *port), peerAddr)
	if err != nil {
		log.Error().Err(err).Msg("open transport socket")
		os.Exit(1)
	}
	sender := transport.NewSender(conn, dest, media.DefaultMTU, logger)

	// Stream geometry is negotiated via a SHCF config exchange in a full
	// deployment; defaulted here to the requested window size until the
	// first ConfigResponse updates it (spec.md §6 ConfigPayload).
	cfg := media.StreamConfig{
		Width:            *windowWidth,
		Height:           *windowHeight,
		FPS:              60,
		Codec:            media.CodecH264,
		Bitrate:          20_000_000,
		KeyframeInterval: 120,
		MaxPacketSize:    media.DefaultMTU,
	}

	drawer := &windowDrawerAdapter{logger: logger}
	renderer := render.NewRenderer(drawer, 1)
	renderer.Resize(float64(*windowWidth), float64(*windowHeight))

	viewer, err := pipeline.NewViewer(cfg, pipeline.ViewerDeps{
		Decoder:  codec.NewGstDecoder(),
		Sender:   sender,
		Renderer: renderer,
		Stats:    sessionStats,
		Logger:   logger,
	})
	if err != nil {
		log.Error().Err(err).Msg("construct viewer pipeline")
		os.Exit(1)
	}

	receiver := transport.NewReceiver(conn, time.Duration(cfg.FrameInterval()), transport.DefaultReassemblyCapacity, viewer.Handlers(), logger)
	viewer.AttachReceiver(receiver)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().Str("host", *host).Int("port", *port).Bool("fullscreen", *fullscreen).Msg("screenhero-viewer starting")
	if err := viewer.Run(ctx); err != nil {
		log.Error().Err(err).Msg("viewer pipeline exited")
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()
	_ = viewer.Stop(stopCtx)
}
