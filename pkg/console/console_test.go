package console

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/bgswap/pkg/compositor"
	"github.com/user/bgswap/pkg/orchestrator"
	"github.com/user/bgswap/pkg/ports"
)

type fakeSession struct {
	selected    []string
	backgrounds []string
	selectErr   error
}

func (f *fakeSession) Devices() []ports.DeviceInfo {
	return []ports.DeviceInfo{{DeviceID: "cam-1", Label: "Front camera", Kind: ports.KindVideoInput}}
}

func (f *fakeSession) SelectDevice(ctx context.Context, id string) error {
	if f.selectErr != nil {
		return f.selectErr
	}
	f.selected = append(f.selected, id)
	return nil
}

func (f *fakeSession) ChooseBackground(path string) error {
	f.backgrounds = append(f.backgrounds, path)
	return nil
}

func (f *fakeSession) Status() orchestrator.Status {
	return orchestrator.Status{
		DeviceID:    "cam-1",
		DeviceLabel: "Front camera",
		State:       compositor.Running,
		Generation:  3,
		Stats:       compositor.Stats{Submitted: 10, Drawn: 9},
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		line    string
		want    Command
		wantErr error
	}{
		{"", Command{}, nil},
		{"   ", Command{}, nil},
		{"devices", Command{Name: CmdDevices}, nil},
		{"DEVICES", Command{Name: CmdDevices}, nil},
		{"device cam-1", Command{Name: CmdDevice, Arg: "cam-1"}, nil},
		{"use  cam-2 ", Command{Name: CmdDevice, Arg: "cam-2"}, nil},
		{"device none", Command{Name: CmdNone}, nil},
		{"none", Command{Name: CmdNone}, nil},
		{"background /tmp/my beach.jpg", Command{Name: CmdBackground, Arg: "/tmp/my beach.jpg"}, nil},
		{"bg a.png", Command{Name: CmdBackground, Arg: "a.png"}, nil},
		{"status", Command{Name: CmdStatus}, nil},
		{"help", Command{Name: CmdHelp}, nil},
		{"quit", Command{Name: CmdQuit}, nil},
		{"exit", Command{Name: CmdQuit}, nil},
		{"device", Command{}, ErrMissingArgument},
		{"background", Command{}, ErrMissingArgument},
		{"dance", Command{}, ErrUnknownCommand},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := Parse(tt.line)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRun_Commands(t *testing.T) {
	session := &fakeSession{}
	in := strings.NewReader("devices\ndevice cam-1\nbackground /bg.jpg\nstatus\nbogus\nnone\nquit\ndevice ignored\n")
	var out bytes.Buffer

	require.NoError(t, Run(context.Background(), in, &out, session))

	assert.Equal(t, []string{"cam-1", "none"}, session.selected)
	assert.Equal(t, []string{"/bg.jpg"}, session.backgrounds)

	text := out.String()
	assert.Contains(t, text, "Front camera")
	assert.Contains(t, text, "none")
	assert.Contains(t, text, "running (generation 3)")
	assert.Contains(t, text, "drawn 9")
	assert.Contains(t, text, "unknown command")
}

func TestRun_ReportsFailures(t *testing.T) {
	session := &fakeSession{selectErr: ports.ErrPermissionDenied}
	var out bytes.Buffer

	require.NoError(t, Run(context.Background(), strings.NewReader("device cam-1\n"), &out, session))
	assert.Contains(t, out.String(), "permission denied")
}

func TestRun_EndOfInput(t *testing.T) {
	var out bytes.Buffer
	assert.NoError(t, Run(context.Background(), strings.NewReader("help"), &out, &fakeSession{}))
	assert.Contains(t, out.String(), "background <path>")
}

type blockingReader struct{ done chan struct{} }

func (r blockingReader) Read(p []byte) (int, error) {
	<-r.done
	return 0, errors.New("closed")
}

func TestRun_Cancelled(t *testing.T) {
	r := blockingReader{done: make(chan struct{})}
	defer close(r.done)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Run(ctx, r, &bytes.Buffer{}, &fakeSession{})
	assert.ErrorIs(t, err, context.Canceled)
}
