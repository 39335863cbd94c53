// Package console provides the interactive command surface of a session:
// choosing the camera and the background from a terminal.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ideamans/go-l10n"

	"github.com/user/bgswap/pkg/orchestrator"
	"github.com/user/bgswap/pkg/pipeline"
	"github.com/user/bgswap/pkg/ports"
)

// Command names.
const (
	CmdDevices    = "devices"
	CmdDevice     = "device"
	CmdNone       = "none"
	CmdBackground = "background"
	CmdStatus     = "status"
	CmdHelp       = "help"
	CmdQuit       = "quit"
)

// ErrUnknownCommand is returned by Parse for unrecognised input.
var ErrUnknownCommand = errors.New("unknown command")

// ErrMissingArgument is returned by Parse when a command needs an argument.
var ErrMissingArgument = errors.New("missing argument")

// Command is one parsed console line.
type Command struct {
	Name string
	Arg  string
}

// Parse parses a line. Blank lines parse to the zero Command.
func Parse(line string) (Command, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Command{}, nil
	}

	name, arg, _ := strings.Cut(line, " ")
	name = strings.ToLower(name)
	arg = strings.TrimSpace(arg)

	switch name {
	case CmdDevices, CmdNone, CmdStatus, CmdHelp:
		return Command{Name: name}, nil
	case CmdQuit, "exit", "q":
		return Command{Name: CmdQuit}, nil
	case CmdDevice, "use":
		if arg == "" {
			return Command{}, fmt.Errorf("%s: %w", CmdDevice, ErrMissingArgument)
		}
		if arg == pipeline.NoneDeviceID {
			return Command{Name: CmdNone}, nil
		}
		return Command{Name: CmdDevice, Arg: arg}, nil
	case CmdBackground, "bg":
		if arg == "" {
			return Command{}, fmt.Errorf("%s: %w", CmdBackground, ErrMissingArgument)
		}
		return Command{Name: CmdBackground, Arg: arg}, nil
	default:
		return Command{}, fmt.Errorf("%q: %w", name, ErrUnknownCommand)
	}
}

// Session is what the console controls.
type Session interface {
	Devices() []ports.DeviceInfo
	SelectDevice(ctx context.Context, id string) error
	ChooseBackground(path string) error
	Status() orchestrator.Status
}

// Run reads commands from r until quit, end of input or cancellation.
// Command failures are printed to w and do not end the console.
func Run(ctx context.Context, r io.Reader, w io.Writer, session Session) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	prompt(w)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					return err
				default:
					return nil
				}
			}
			cmd, err := Parse(line)
			if err != nil {
				fmt.Fprintln(w, l10n.F("Error: %s", err))
				prompt(w)
				continue
			}
			if cmd.Name == CmdQuit {
				return nil
			}
			execute(ctx, w, session, cmd)
			prompt(w)
		}
	}
}

func prompt(w io.Writer) {
	fmt.Fprint(w, "> ")
}

func execute(ctx context.Context, w io.Writer, session Session, cmd Command) {
	switch cmd.Name {
	case "":
	case CmdDevices:
		PrintDevices(w, session.Devices())
	case CmdDevice:
		if err := session.SelectDevice(ctx, cmd.Arg); err != nil {
			fmt.Fprintln(w, l10n.F("Error: %s", err))
			return
		}
		fmt.Fprintln(w, l10n.F("Using %s", cmd.Arg))
	case CmdNone:
		if err := session.SelectDevice(ctx, pipeline.NoneDeviceID); err != nil {
			fmt.Fprintln(w, l10n.F("Error: %s", err))
			return
		}
		fmt.Fprintln(w, l10n.T("Stopped"))
	case CmdBackground:
		if err := session.ChooseBackground(cmd.Arg); err != nil {
			fmt.Fprintln(w, l10n.F("Error: %s", err))
			return
		}
		fmt.Fprintln(w, l10n.F("Background set to %s", cmd.Arg))
	case CmdStatus:
		PrintStatus(w, session.Status())
	case CmdHelp:
		PrintHelp(w)
	}
}

// PrintDevices lists the selectable devices, the sentinel entry first.
func PrintDevices(w io.Writer, inputs []ports.DeviceInfo) {
	fmt.Fprintf(w, "  %-24s %s\n", pipeline.NoneDeviceID, l10n.T(pipeline.NoneDeviceLabel))
	for _, d := range inputs {
		label := d.Label
		if label == "" {
			label = d.DeviceID
		}
		fmt.Fprintf(w, "  %-24s %s\n", d.DeviceID, label)
	}
}

// PrintStatus prints a status snapshot.
func PrintStatus(w io.Writer, st orchestrator.Status) {
	device := st.DeviceLabel
	if device == "" {
		device = pipeline.NoneDeviceID
	}
	background := st.BackgroundURL
	if background == "" {
		background = "-"
	}
	fmt.Fprintln(w, l10n.F("Device:     %s", device))
	fmt.Fprintln(w, l10n.F("Loop:       %s (generation %d)", st.State, st.Generation))
	fmt.Fprintln(w, l10n.F("Background: %s (ready: %t)", background, st.HasBackground))
	fmt.Fprintln(w, l10n.F("Output:     playing %t", st.OutputPlaying))
	fmt.Fprintln(w, l10n.F("Frames:     submitted %d, drawn %d, stale %d, busy %d, errors %d",
		st.Stats.Submitted, st.Stats.Drawn, st.Stats.Stale, st.Stats.SkippedBusy, st.Stats.Errors))
}

// PrintHelp lists the commands.
func PrintHelp(w io.Writer) {
	fmt.Fprintln(w, l10n.T("Commands:"))
	fmt.Fprintln(w, "  devices")
	fmt.Fprintln(w, "  device <id>")
	fmt.Fprintln(w, "  none")
	fmt.Fprintln(w, "  background <path>")
	fmt.Fprintln(w, "  status")
	fmt.Fprintln(w, "  help")
	fmt.Fprintln(w, "  quit")
}
