// Package main provides the CLI entry point for bgswap.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/ideamans/go-l10n"

	"github.com/user/bgswap/pkg/adapters/h264recorder"
	"github.com/user/bgswap/pkg/adapters/logger"
	"github.com/user/bgswap/pkg/config"
	"github.com/user/bgswap/pkg/console"
	"github.com/user/bgswap/pkg/pipeline"
	"github.com/user/bgswap/pkg/ports"
	"github.com/user/bgswap/pkg/stages/devices"
)

// CLI defines the command-line interface with subcommands.
type CLI struct {
	Devices DevicesCmd `cmd:"" help:"List video input devices."`
	Run     RunCmd     `cmd:"" help:"Replace the camera background and publish the result."`
	Version VersionCmd `cmd:"" help:"Show version information."`
}

// CommonFlags are shared by commands that open devices.
type CommonFlags struct {
	Config string `short:"c" type:"existingfile" help:"YAML configuration file."`

	// Logging options
	LogLevel string `short:"l" help:"Log level (debug, info, warn, error)."`
	Quiet    bool   `short:"Q" help:"Suppress all log output."`
}

// DevicesCmd lists the video inputs.
type DevicesCmd struct {
	CommonFlags `embed:""`
}

// RunCmd runs a compositing session.
type RunCmd struct {
	CommonFlags `embed:""`

	Device     *string `short:"D" help:"Video input device id (default: first device, 'none' to start stopped)."`
	Background *string `short:"b" help:"Background image file."`

	// Output consumers
	Record  *string `short:"o" help:"Record the output stream to an MP4 file."`
	Preview *string `short:"p" help:"Keep a JPEG file updated with the latest output frame."`

	Summary     string        `help:"Write a Markdown session summary to this file on exit."`
	Duration    time.Duration `short:"t" help:"Stop after this long (0 = until interrupted)."`
	Interactive bool          `short:"i" help:"Read commands from standard input."`

	// Debug options
	Debug    bool    `short:"d" help:"Enable debug output."`
	DebugDir *string `help:"Directory for debug output."`
}

// VersionCmd shows version information.
type VersionCmd struct{}

var version = "dev"

func main() {
	cli := CLI{}

	ctx := kong.Parse(&cli,
		kong.Name("bgswap"),
		kong.Description(l10n.T("Replace the background of a live camera stream.")),
		kong.UsageOnError(),
	)

	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}

// Run executes the devices command.
func (cmd *DevicesCmd) Run() error {
	cfg, err := cmd.load(nil)
	if err != nil {
		return err
	}
	log := cmd.logger(cfg)

	ctx, cancel := signalContext(log)
	defer cancel()

	cameras, err := newMediaDevices(cfg, log)
	if err != nil {
		return err
	}
	inputs, err := devices.NewSelector(cameras, log).Enumerate(ctx)
	if err != nil {
		return err
	}
	console.PrintDevices(os.Stdout, inputs)
	return nil
}

// Run executes the run command.
func (cmd *RunCmd) Run() error {
	cfg, err := cmd.load(cmd.apply)
	if err != nil {
		return err
	}
	log := cmd.logger(cfg)

	ctx, cancel := signalContext(log)
	defer cancel()
	if cmd.Duration > 0 {
		var stop context.CancelFunc
		ctx, stop = context.WithTimeout(ctx, cmd.Duration)
		defer stop()
	}

	a, err := newApp(cfg, log)
	if err != nil {
		return err
	}
	defer a.close(cmd.Summary)

	if err := a.start(ctx); err != nil {
		return err
	}

	if cmd.Interactive {
		if err := console.Run(ctx, os.Stdin, os.Stdout, a.session); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return nil
	}

	<-ctx.Done()
	return nil
}

// apply overrides the configuration with flags.
func (cmd *RunCmd) apply(cfg *config.Config) {
	if cmd.Device != nil {
		cfg.Device = *cmd.Device
	}
	if cmd.Background != nil {
		cfg.Background = *cmd.Background
	}
	if cmd.Record != nil {
		cfg.Record = *cmd.Record
	}
	if cmd.Preview != nil {
		cfg.Preview = *cmd.Preview
	}
	if cmd.Debug {
		cfg.Debug = true
	}
	if cmd.DebugDir != nil {
		cfg.DebugDir = *cmd.DebugDir
	}
}

// Run executes the version command.
func (cmd *VersionCmd) Run() error {
	fmt.Println(l10n.F("bgswap version %s", version))
	return nil
}

// load reads the configuration file, applies flag overrides and validates
// the result.
func (f *CommonFlags) load(apply func(*config.Config)) (config.Config, error) {
	cfg := config.Defaults()
	if f.Config != "" {
		var err error
		if cfg, err = config.LoadFromFile(f.Config); err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
	}
	if f.LogLevel != "" {
		cfg.LogLevel = f.LogLevel
	}
	if apply != nil {
		apply(&cfg)
	}
	if err := config.Validate(&cfg); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (f *CommonFlags) logger(cfg config.Config) ports.Logger {
	if f.Quiet {
		return logger.NewNoop()
	}
	return logger.NewConsole(ports.ParseLogLevel(cfg.LogLevel))
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(log ports.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			log.Warn(l10n.T("Interrupted, shutting down..."))
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// initialDevice picks the device a session starts with.
func initialDevice(cfg config.Config, inputs []ports.DeviceInfo) string {
	if cfg.Device != "" {
		return cfg.Device
	}
	if len(inputs) == 0 {
		return pipeline.NoneDeviceID
	}
	return inputs[0].DeviceID
}

// ignoreNoFrames treats an empty recording as a clean close.
func ignoreNoFrames(err error) error {
	if errors.Is(err, h264recorder.ErrNoFrames) {
		return nil
	}
	return err
}
