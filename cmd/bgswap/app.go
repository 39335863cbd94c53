package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/ideamans/go-l10n"

	"github.com/user/bgswap/pkg/adapters/blobstore"
	"github.com/user/bgswap/pkg/adapters/chromakey"
	"github.com/user/bgswap/pkg/adapters/filecamera"
	"github.com/user/bgswap/pkg/adapters/filesink"
	"github.com/user/bgswap/pkg/adapters/ggrenderer"
	"github.com/user/bgswap/pkg/adapters/gocvcamera"
	"github.com/user/bgswap/pkg/adapters/h264recorder"
	"github.com/user/bgswap/pkg/adapters/jpegpreview"
	"github.com/user/bgswap/pkg/adapters/nullsink"
	"github.com/user/bgswap/pkg/adapters/onnxsegmenter"
	"github.com/user/bgswap/pkg/adapters/osfilesystem"
	"github.com/user/bgswap/pkg/capture"
	"github.com/user/bgswap/pkg/compositor"
	"github.com/user/bgswap/pkg/config"
	"github.com/user/bgswap/pkg/host"
	"github.com/user/bgswap/pkg/media"
	"github.com/user/bgswap/pkg/orchestrator"
	"github.com/user/bgswap/pkg/ports"
	"github.com/user/bgswap/pkg/stages/background"
	"github.com/user/bgswap/pkg/stages/composite"
	"github.com/user/bgswap/pkg/stages/devices"
	"github.com/user/bgswap/pkg/summarizer"
)

// app holds one wired session and the host running it.
type app struct {
	cfg     config.Config
	log     ports.Logger
	host    *host.Loop
	session *orchestrator.Session
	sinks   ports.FrameSink

	recorder *h264recorder.Recorder
	fs       ports.FileSystem
	started  time.Time

	hostCancel context.CancelFunc
	hostDone   chan struct{}
}

// newApp creates the adapters and the session and starts the host.
func newApp(cfg config.Config, log ports.Logger) (*app, error) {
	fs := osfilesystem.New()
	renderer := ggrenderer.New()
	size := cfg.Size()

	cameras, err := newMediaDevices(cfg, log)
	if err != nil {
		return nil, err
	}
	segmenter, err := newSegmenter(cfg, log)
	if err != nil {
		return nil, err
	}

	debug, err := newDebugSink(cfg, fs, renderer)
	if err != nil {
		segmenter.Close()
		return nil, err
	}
	sinks, recorder, err := newOutputSinks(cfg, fs, renderer, log)
	if err != nil {
		segmenter.Close()
		return nil, err
	}

	hostLoop := host.New(host.Options{RefreshRate: cfg.RefreshRate})
	provider := background.NewProvider(fs, blobstore.New(), renderer, log)
	surface := capture.NewSurface(size)
	loop := compositor.New(compositor.Options{
		Scheduler:     hostLoop,
		Dispatcher:    hostLoop,
		Segmenter:     segmenter,
		Stage:         composite.NewStage(renderer, size, debug, log),
		Background:    provider,
		Output:        surface,
		SubmitTimeout: cfg.SubmitTimeout(),
		Logger:        log,
	})

	session := orchestrator.New(
		cfg.ToOrchestratorConfig(),
		hostLoop,
		devices.NewSelector(cameras, log),
		provider,
		loop,
		surface,
		media.NewVideoElement("source", nil, log),
		media.NewVideoElement("output", sinks, log),
		segmenter,
		log,
	)

	hostCtx, hostCancel := context.WithCancel(context.Background())
	a := &app{
		cfg:        cfg,
		log:        log,
		host:       hostLoop,
		session:    session,
		sinks:      sinks,
		recorder:   recorder,
		fs:         fs,
		started:    time.Now(),
		hostCancel: hostCancel,
		hostDone:   make(chan struct{}),
	}
	go func() {
		defer close(a.hostDone)
		hostLoop.Run(hostCtx)
	}()
	return a, nil
}

// start mounts the session and applies the startup choices.
func (a *app) start(ctx context.Context) error {
	if err := a.session.Mount(ctx); err != nil {
		return err
	}
	if a.cfg.Background != "" {
		if err := a.session.ChooseBackground(a.cfg.Background); err != nil {
			return err
		}
	}
	id := initialDevice(a.cfg, a.session.Devices())
	if err := a.session.SelectDevice(ctx, id); err != nil {
		return err
	}
	if a.cfg.Record != "" {
		a.log.Info(l10n.F("Recording to %s", a.cfg.Record))
	}
	if a.cfg.Preview != "" {
		a.log.Info(l10n.F("Preview at %s", a.cfg.Preview))
	}
	return nil
}

// close stops the session, then the host, then the output consumers.
// With a summary path the session report is written last.
func (a *app) close(summaryPath string) {
	status := a.session.Status()

	if err := a.session.Close(); err != nil {
		a.log.Warn(l10n.F("Failed to close session: %s", err))
	}
	a.hostCancel()
	<-a.hostDone

	if a.sinks != nil {
		if err := ignoreNoFrames(a.sinks.Close()); err != nil {
			a.log.Error(l10n.F("Failed to finish output: %s", err))
		}
	}

	if summaryPath != "" {
		if err := a.writeSummary(summaryPath, status); err != nil {
			a.log.Error(l10n.F("Failed to write summary: %s", err))
			return
		}
		a.log.Info(l10n.F("Summary saved to %s", summaryPath))
	}
}

func (a *app) writeSummary(path string, status orchestrator.Status) error {
	outputs := summarizer.Outputs{
		RecordPath:  a.cfg.Record,
		PreviewPath: a.cfg.Preview,
	}
	if a.recorder != nil {
		outputs.RecordFrames = a.recorder.Frames()
	}
	if a.cfg.Debug {
		outputs.DebugDir = a.cfg.DebugDir
	}

	summary := summarizer.NewBuilder(a.started).
		WithStatus(status).
		WithBackground(a.cfg.Background).
		WithSettings(summarizer.Settings{
			Width:          a.cfg.Width,
			Height:         a.cfg.Height,
			FPS:            a.cfg.FPS,
			Camera:         a.cfg.Camera.Kind,
			Segmenter:      a.cfg.Segmenter.Kind,
			ModelSelection: a.cfg.Segmenter.ModelSelection,
			SubmitTimeout:  a.cfg.SubmitTimeout(),
		}).
		WithOutputs(outputs).
		Build(time.Now())

	return summarizer.NewWriter(summarizer.NewMarkdownFormatter(), a.fs).Write(path, summary)
}

func newMediaDevices(cfg config.Config, log ports.Logger) (ports.MediaDevices, error) {
	switch cfg.Camera.Kind {
	case config.CameraFiles:
		var list []filecamera.Device
		for _, d := range cfg.Camera.Devices {
			list = append(list, filecamera.Device{
				ID:    d.ID,
				Label: d.Label,
				Kind:  ports.DeviceKind(d.Kind),
				Dir:   d.Path,
				FPS:   d.FPS,
			})
		}
		return filecamera.New(list, osfilesystem.New(), ggrenderer.New(), log), nil
	case config.CameraGocv:
		return gocvcamera.New(cfg.Camera.MaxProbe, log), nil
	default:
		return nil, fmt.Errorf("unknown camera kind %q", cfg.Camera.Kind)
	}
}

func newSegmenter(cfg config.Config, log ports.Logger) (ports.Segmenter, error) {
	var seg ports.Segmenter
	switch cfg.Segmenter.Kind {
	case config.SegmenterChromaKey:
		key, err := config.ParseColor(cfg.Segmenter.KeyColor)
		if err != nil {
			return nil, err
		}
		seg = chromakey.New(key, cfg.Segmenter.Tolerance, log)
	case config.SegmenterONNX:
		seg = onnxsegmenter.New(cfg.Segmenter.Threshold, log)
	default:
		return nil, fmt.Errorf("unknown segmenter kind %q", cfg.Segmenter.Kind)
	}

	opts := ports.SegmenterOptions{
		ModelSelection: cfg.Segmenter.ModelSelection,
		AssetDir:       cfg.Segmenter.ModelDir,
		InputLayout:    cfg.Segmenter.InputLayout,
	}
	if err := seg.SetOptions(opts); err != nil {
		seg.Close()
		return nil, fmt.Errorf("configure segmenter: %w", err)
	}
	return seg, nil
}

func newDebugSink(cfg config.Config, fs ports.FileSystem, renderer ports.Renderer) (ports.DebugSink, error) {
	if !cfg.Debug {
		return nullsink.New(), nil
	}
	for _, kind := range []string{"source", "mask", "composed"} {
		if err := fs.MkdirAll(filepath.Join(cfg.DebugDir, "frames", kind)); err != nil {
			return nil, fmt.Errorf("create debug directory: %w", err)
		}
	}
	return filesink.New(cfg.DebugDir, fs, renderer, int(cfg.FPS)), nil
}

// newOutputSinks builds the consumers of the output element. The sink is
// nil when there are none; the recorder is nil unless recording.
func newOutputSinks(cfg config.Config, fs ports.FileSystem, renderer ports.Renderer, log ports.Logger) (ports.FrameSink, *h264recorder.Recorder, error) {
	var (
		sinks    []ports.FrameSink
		recorder *h264recorder.Recorder
	)
	if cfg.Record != "" {
		var err error
		if recorder, err = h264recorder.New(cfg.Record, cfg.Size().Point(), cfg.FPS, fs, log); err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, recorder)
	}
	if cfg.Preview != "" {
		sinks = append(sinks, jpegpreview.New(cfg.Preview, fs, renderer, jpegpreview.DefaultInterval))
	}
	if len(sinks) == 0 {
		return nil, nil, nil
	}
	return media.NewTee(sinks...), recorder, nil
}
