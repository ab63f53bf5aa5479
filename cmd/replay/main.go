// Package main provides the CLI entry point for replay.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/user/replay/pkg/adapters/filesink"
	"github.com/user/replay/pkg/adapters/formatdetect"
	"github.com/user/replay/pkg/adapters/ggrenderer"
	"github.com/user/replay/pkg/adapters/logger"
	"github.com/user/replay/pkg/adapters/nullsink"
	"github.com/user/replay/pkg/adapters/osfilesystem"
	"github.com/user/replay/pkg/adapters/smartsource"
	"github.com/user/replay/pkg/annotations"
	"github.com/user/replay/pkg/bridge"
	"github.com/user/replay/pkg/config"
	"github.com/user/replay/pkg/player"
	"github.com/user/replay/pkg/ports"
	"github.com/user/replay/pkg/replay"
	"github.com/user/replay/pkg/report"
	"github.com/user/replay/pkg/stills"
)

var version = "dev"

func main() {
	cli.VersionPrinter = func(c *cli.Context) {
		fmt.Println(l10n.F("replay version %s", c.App.Version))
	}

	app := &cli.App{
		Name:    "replay",
		Usage:   l10n.T("Frame-accurate playback for annotated match videos"),
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"C"},
				Usage:   l10n.T("Configuration file path (YAML)"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Value:   "info",
				Usage:   l10n.T("Log level (debug, info, warn, error)"),
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"Q"},
				Usage:   l10n.T("Suppress all log output"),
			},
			&cli.StringFlag{
				Name:  "source",
				Usage: l10n.T("Decoder backend (auto, mp4, ffmpeg)"),
			},
			&cli.BoolFlag{
				Name:  "hw-accel",
				Usage: l10n.T("Use hardware accelerated decoding when available"),
			},
		},
		Commands: []*cli.Command{
			probeCommand(),
			playCommand(),
			serveCommand(),
			exportCommand(),
			tagCommand(),
			versionCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig resolves the effective configuration: defaults, then the
// config file if one was given, then command line overrides.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Defaults()
	if path := c.String("config"); path != "" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	if c.IsSet("log-level") {
		cfg.Logging.Level = c.String("log-level")
	}
	if c.Bool("quiet") {
		cfg.Logging.Quiet = true
	}
	if c.IsSet("source") {
		cfg.Source.Backend = c.String("source")
	}
	if c.IsSet("hw-accel") {
		cfg.Source.EnableHWAccel = c.Bool("hw-accel")
	}
	return cfg, nil
}

func newLogger(cfg config.Config) ports.Logger {
	if cfg.Logging.Quiet {
		return logger.NewNoop()
	}
	return logger.NewConsole(ports.ParseLogLevel(cfg.Logging.Level))
}

// runContext returns a context cancelled on SIGINT or SIGTERM.
func runContext(log ports.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Warn(l10n.T("Interrupted, shutting down..."))
		cancel()
	}()

	return ctx, cancel
}

func videoArg(c *cli.Context) (string, error) {
	path := c.Args().First()
	if path == "" {
		return "", errors.New(l10n.T("a video file argument is required"))
	}
	return path, nil
}

func sourceOptions(cfg config.Config, log ports.Logger) (smartsource.Options, error) {
	backend, err := smartsource.ParseBackend(cfg.Source.Backend)
	if err != nil {
		return smartsource.Options{}, err
	}
	return smartsource.Options{
		Backend:     backend,
		FFmpegPath:  cfg.Source.FFmpegPath,
		FFprobePath: cfg.Source.FFprobePath,
		HWAccel:     cfg.Source.EnableHWAccel,
		Logger:      log,
	}, nil
}

func probeCommand() *cli.Command {
	return &cli.Command{
		Name:      "probe",
		Usage:     l10n.T("Print source properties without playing"),
		ArgsUsage: "<file>",
		Action:    runProbe,
	}
}

func runProbe(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	log := newLogger(cfg)
	path, err := videoArg(c)
	if err != nil {
		return err
	}

	opts, err := sourceOptions(cfg, log)
	if err != nil {
		return err
	}
	src, info, sel, err := smartsource.New(opts).OpenWithInfo(path)
	if err != nil {
		return err
	}
	defer src.Close()

	durationMs := 0
	if info.FrameRate > 0 {
		durationMs = int(math.Round(float64(info.TotalFrames) / info.FrameRate * 1000.0))
	}

	decoder := string(sel.Backend)
	if sel.FallbackUsed {
		decoder += " " + l10n.T("(fallback)")
	}

	field := func(label, value string) {
		fmt.Printf("%-13s%s\n", l10n.T(label), value)
	}
	field("File:", path)
	field("Format:", sel.Format.String())
	field("Decoder:", decoder)
	field("Frame rate:", fmt.Sprintf("%.2f fps", info.FrameRate))
	field("Frames:", strconv.Itoa(info.TotalFrames))
	field("Duration:", fmt.Sprintf("%d ms", durationMs))

	// Only report annotations when a sidecar already exists; opening
	// the store would create one.
	fs := osfilesystem.New()
	if exists, err := fs.Exists(annotations.SidecarPath(path)); err == nil && exists {
		if store, err := annotations.Open(fs, log, path); err == nil {
			field("Annotations:", strconv.Itoa(store.Count()))
		}
	}
	return nil
}

func playCommand() *cli.Command {
	return &cli.Command{
		Name:      "play",
		Usage:     l10n.T("Play a video headlessly and report delivery statistics"),
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.Float64Flag{
				Name:  "speed",
				Value: 1.0,
				Usage: l10n.T("Playback speed multiplier"),
			},
			&cli.IntFlag{
				Name:  "start",
				Usage: l10n.T("Start position in milliseconds"),
			},
			&cli.IntFlag{
				Name:  "for",
				Usage: l10n.T("Play this many source milliseconds (0 = to the end)"),
			},
			&cli.IntFlag{
				Name:  "buffer",
				Usage: l10n.T("Frame buffer target (overrides configuration)"),
			},
			&cli.StringFlag{
				Name:  "report",
				Usage: l10n.T("Write a markdown session report to this path"),
			},
			&cli.StringFlag{
				Name:  "debug-dir",
				Usage: l10n.T("Save decoded frames and session data to this directory"),
			},
		},
		Action: runPlay,
	}
}

func runPlay(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	log := newLogger(cfg)
	path, err := videoArg(c)
	if err != nil {
		return err
	}

	ctx, cancel := runContext(log)
	defer cancel()

	fs := osfilesystem.New()
	renderer := ggrenderer.New()

	// Debug sink
	var sink ports.DebugSink
	if dir := c.String("debug-dir"); dir != "" {
		if err := fs.MkdirAll(dir); err != nil {
			return fmt.Errorf("create debug directory: %w", err)
		}
		sink = filesink.New(dir, fs, renderer)
	} else {
		sink = nullsink.New()
	}

	events := newHeadlessSink(sink)

	builder := replay.FromConfig(cfg).WithLogger(log).WithEvents(events)
	if c.IsSet("buffer") {
		builder.WithBufferSize(c.Int("buffer"))
	}
	p, err := builder.Build()
	if err != nil {
		return err
	}

	if err := p.Start(); err != nil {
		return err
	}
	defer p.Stop()

	if err := p.Load(path); err != nil {
		return err
	}

	if sink.Enabled() {
		loaded := p.Status()
		probe := struct {
			Path            string  `json:"path"`
			FrameRate       float64 `json:"frameRate"`
			TotalFrames     int     `json:"totalFrames"`
			TotalDurationMs int     `json:"totalDurationMs"`
		}{path, loaded.FrameRate, loaded.TotalFrames, loaded.TotalDurationMs}
		if data, err := json.MarshalIndent(probe, "", "  "); err == nil {
			_ = sink.SaveProbeJSON(data)
		}
	}

	if start := c.Int("start"); start > 0 {
		if err := p.Seek(start); err != nil {
			return err
		}
	}
	speed := p.SetSpeed(c.Float64("speed"))

	log.Info(l10n.F("Playing %s", path))

	var limit <-chan time.Time
	if forMs := c.Int("for"); forMs > 0 {
		limit = time.After(time.Duration(float64(forMs)/speed) * time.Millisecond)
	} else {
		log.Info(l10n.T("Press Ctrl+C to stop"))
	}

	began := time.Now()
	if err := p.Play(); err != nil {
		return err
	}

	finished := false
	select {
	case <-ctx.Done():
	case <-events.Finished():
		finished = true
	case <-limit:
	}
	wallMs := int(time.Since(began) / time.Millisecond)

	metrics := p.Metrics()
	status := p.Status()
	if err := p.Stop(); err != nil {
		log.Warn(l10n.F("Failed to close source: %s", err))
	}

	summary := buildSummary(cfg, path, status, metrics, events, wallMs, finished, speed)
	fmt.Print(report.NewTextFormatter().Format(summary))

	if out := c.String("report"); out != "" {
		writer := report.NewWriter(fs, report.NewMarkdownFormatter(
			report.WithTranslator(l10n.T),
			report.WithVersion(version),
		))
		if err := writer.Write(out, summary); err != nil {
			return err
		}
		log.Info(l10n.F("Report saved to %s", out))
	}

	if sink.Enabled() {
		if data, err := json.MarshalIndent(summary, "", "  "); err == nil {
			_ = sink.SaveSessionJSON(data)
		}
	}
	return nil
}

func buildSummary(cfg config.Config, path string, status player.Status, metrics player.Metrics, events *headlessSink, wallMs int, finished bool, speed float64) *report.Summary {
	decoder := cfg.Source.Backend
	if detected, err := formatdetect.DetectFromFile(path); err == nil {
		decoder = detected.String()
	}
	_, bytes := events.Counters()

	return report.NewBuilder().
		WithSource(report.SourceInfo{
			Path:        path,
			Decoder:     decoder,
			FrameRate:   status.FrameRate,
			TotalFrames: status.TotalFrames,
			DurationMs:  status.TotalDurationMs,
		}).
		WithPlayback(report.PlaybackInfo{
			FramesEmitted:   metrics.FramesEmitted,
			FramesSkipped:   metrics.FramesSkipped,
			DirectDecodes:   metrics.DirectDecodes,
			PrefetchBatches: metrics.PrefetchBatches,
			UrgentBursts:    metrics.UrgentBursts,
			AvgDecodeMs:     metrics.AvgDecodeMs,
			BytesDelivered:  bytes,
			WallClockMs:     wallMs,
			Finished:        finished,
		}).
		WithSettings(report.Settings{
			Speed:        speed,
			BufferTarget: metrics.BufferTarget,
			FrameSkip:    !cfg.Player.DisableFrameSkip,
			HWAccel:      cfg.Source.EnableHWAccel,
		}).
		Build()
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:      "serve",
		Usage:     l10n.T("Serve the browser viewer for a video"),
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Aliases: []string{"a"},
				Value:   ":8089",
				Usage:   l10n.T("Listen address for the viewer server"),
			},
		},
		Action: runServe,
	}
}

func runServe(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	log := newLogger(cfg)
	path, err := videoArg(c)
	if err != nil {
		return err
	}

	ctx, cancel := runContext(log)
	defer cancel()

	addr := cfg.Serve.Addr
	if c.IsSet("addr") || addr == "" {
		addr = c.String("addr")
	}

	// The bridge needs the player as its transport and the player needs
	// an event sink at construction; the relay is bound once both exist.
	relay := &relaySink{}
	p, err := replay.FromConfig(cfg).WithLogger(log).WithEvents(relay).Build()
	if err != nil {
		return err
	}
	br := bridge.New(p, log)
	relay.Bind(br)

	if err := p.Start(); err != nil {
		return err
	}
	defer p.Stop()

	if err := p.Load(path); err != nil {
		return err
	}

	srv := &http.Server{Addr: addr, Handler: br.Handler()}
	log.Info(l10n.F("Listening on %s", addr))
	log.Info(l10n.F("Viewer ready at %s", viewerURL(addr)))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		br.Close()
		return err
	case <-ctx.Done():
	}

	shutCtx, done := context.WithTimeout(context.Background(), 3*time.Second)
	defer done()
	_ = srv.Shutdown(shutCtx)
	br.Close()

	st := br.Stats()
	log.Debug(l10n.F("Bridge stats: %d published, %d sent, %d dropped", st.Published, st.Sent, st.Dropped))
	return nil
}

func viewerURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "http://localhost" + addr
	}
	return "http://" + addr
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     l10n.T("Export a composed still for each annotation"),
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   l10n.T("Output directory for stills"),
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: l10n.T("Image format (png, jpeg)"),
			},
			&cli.IntFlag{
				Name:  "width",
				Usage: l10n.T("Still width in pixels"),
			},
			&cli.IntFlag{
				Name:  "quality",
				Usage: l10n.T("JPEG quality (1-100)"),
			},
		},
		Action: runExport,
	}
}

func runExport(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	log := newLogger(cfg)
	path, err := videoArg(c)
	if err != nil {
		return err
	}

	ctx, cancel := runContext(log)
	defer cancel()

	outDir := cfg.Export.OutDir
	if c.IsSet("out") {
		outDir = c.String("out")
	}
	format := cfg.Export.Format
	if c.IsSet("format") {
		format = c.String("format")
	}
	width := cfg.Export.Width
	if c.IsSet("width") {
		width = c.Int("width")
	}
	quality := cfg.Export.Quality
	if c.IsSet("quality") {
		quality = c.Int("quality")
	}

	fs := osfilesystem.New()
	store, err := annotations.Open(fs, log, path)
	if err != nil {
		return err
	}
	items := store.All()
	if len(items) == 0 {
		log.Warn(l10n.F("No annotations found for %s", path))
		return nil
	}

	opts, err := sourceOptions(cfg, log)
	if err != nil {
		return err
	}
	src, info, err := smartsource.New(opts).Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	exporter := stills.NewDefault(ggrenderer.New(), fs, nullsink.New(), log)
	result, err := exporter.Run(ctx, stills.ExportInput{
		SourcePath: path,
		Source:     src,
		Info:       info,
		Items:      items,
		OutDir:     outDir,
		Format:     ports.ParseImageFormat(format),
		Quality:    quality,
		Width:      width,
		Theme:      cfg.Export.ToStillsTheme(),
	})
	if err != nil {
		return err
	}

	log.Info(l10n.F("Exported %d stills to %s", result.Count, result.OutDir))
	return nil
}

func tagCommand() *cli.Command {
	return &cli.Command{
		Name:      "tag",
		Usage:     l10n.T("Add or list annotations for a video"),
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "at",
				Usage: l10n.T("Annotation position in milliseconds"),
			},
			&cli.StringFlag{
				Name:  "label",
				Usage: l10n.T("Annotation label"),
			},
			&cli.StringFlag{
				Name:  "team",
				Value: "home",
				Usage: l10n.T("Team the annotation belongs to (home, away)"),
			},
			&cli.BoolFlag{
				Name:  "list",
				Usage: l10n.T("List existing annotations"),
			},
		},
		Action: runTag,
	}
}

func runTag(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	log := newLogger(cfg)
	path, err := videoArg(c)
	if err != nil {
		return err
	}

	fs := osfilesystem.New()
	store, err := annotations.Open(fs, log, path)
	if err != nil {
		return err
	}

	if c.Bool("list") {
		items := store.All()
		if len(items) == 0 {
			fmt.Println(l10n.T("No annotations"))
			return nil
		}
		for i, a := range items {
			fmt.Printf("%3d  %-10s  %-32s  %s\n", i, a.GameTime, a.Label, a.Team)
		}
		return nil
	}

	if !c.IsSet("at") || !c.IsSet("label") {
		return errors.New(l10n.T("the --at and --label flags are required (or use --list)"))
	}

	a, err := store.Add(c.Int("at"), annotations.Label(c.String("label")), annotations.Team(c.String("team")))
	if err != nil {
		if errors.Is(err, annotations.ErrUnknownLabel) {
			return fmt.Errorf("%w. %s", err, l10n.F("Valid labels: %s", labelNames()))
		}
		return err
	}

	fmt.Println(l10n.F("Tagged %s %s at %s", a.Team, a.Label, a.GameTime))
	return nil
}

func labelNames() string {
	labels := annotations.Labels()
	names := make([]string, len(labels))
	for i, l := range labels {
		names[i] = string(l)
	}
	return strings.Join(names, ", ")
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: l10n.T("Show version information"),
		Action: func(c *cli.Context) error {
			fmt.Println(l10n.F("replay version %s", version))
			return nil
		},
	}
}

// relaySink forwards engine events to a sink bound after construction.
type relaySink struct {
	target ports.EventSink
}

// Bind sets the destination. Must be called before the player starts.
func (r *relaySink) Bind(target ports.EventSink) {
	r.target = target
}

func (r *relaySink) DurationChanged(totalDurationMs int) {
	if r.target != nil {
		r.target.DurationChanged(totalDurationMs)
	}
}

func (r *relaySink) FrameReady(frame ports.Frame, positionMs int) {
	if r.target != nil {
		r.target.FrameReady(frame, positionMs)
	}
}

func (r *relaySink) PlaybackFinished() {
	if r.target != nil {
		r.target.PlaybackFinished()
	}
}

var _ ports.EventSink = (*relaySink)(nil)

// headlessSink counts delivered frames during a headless play run and
// mirrors them to the debug sink when one is active.
type headlessSink struct {
	sink ports.DebugSink

	mu     sync.Mutex
	frames int
	bytes  int64

	finishOnce sync.Once
	finished   chan struct{}
}

func newHeadlessSink(sink ports.DebugSink) *headlessSink {
	return &headlessSink{sink: sink, finished: make(chan struct{})}
}

func (h *headlessSink) DurationChanged(totalDurationMs int) {}

func (h *headlessSink) FrameReady(frame ports.Frame, positionMs int) {
	h.mu.Lock()
	h.frames++
	seq := h.frames
	h.bytes += int64(len(frame.Data))
	h.mu.Unlock()

	if h.sink.Enabled() {
		_ = h.sink.SaveRawFrame(seq-1, frame.Data)
	}
}

func (h *headlessSink) PlaybackFinished() {
	h.finishOnce.Do(func() { close(h.finished) })
}

// Finished is closed when the stream has been played to the end.
func (h *headlessSink) Finished() <-chan struct{} {
	return h.finished
}

// Counters returns the number of frames delivered and their total
// payload size.
func (h *headlessSink) Counters() (int, int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.frames, h.bytes
}

var _ ports.EventSink = (*headlessSink)(nil)
