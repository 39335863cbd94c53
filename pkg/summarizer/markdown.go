package summarizer

import (
	"fmt"
	"strings"
	"time"

	"github.com/ideamans/go-l10n"
)

// Formatter renders a Summary.
type Formatter interface {
	Format(summary *Summary) string
}

// FormatFunc adapts a function to Formatter.
type FormatFunc func(summary *Summary) string

// Format calls f.
func (f FormatFunc) Format(summary *Summary) string {
	return f(summary)
}

// NewMarkdownFormatter returns a Formatter producing a Markdown report.
func NewMarkdownFormatter() Formatter {
	return FormatFunc(formatMarkdown)
}

func formatMarkdown(s *Summary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", l10n.T("Session Summary"))
	fmt.Fprintf(&b, "%s: %s\n\n", l10n.T("Generated"), s.GeneratedAt.Format(time.RFC3339))

	section(&b, l10n.T("Session"))
	row(&b, l10n.T("Device"), orNone(deviceName(s.Session)))
	row(&b, l10n.T("Background"), orNone(s.Session.Background))
	row(&b, l10n.T("Background Ready"), yesNo(s.Session.HasBackground))
	row(&b, l10n.T("Duration"), s.Duration.Round(time.Millisecond).String())
	row(&b, l10n.T("Generations"), fmt.Sprintf("%d", s.Session.Generations))

	section(&b, l10n.T("Settings"))
	row(&b, l10n.T("Resolution"), fmt.Sprintf("%dx%d", s.Settings.Width, s.Settings.Height))
	row(&b, l10n.T("Frame Rate"), fmt.Sprintf("%.1f fps", s.Settings.FPS))
	row(&b, l10n.T("Camera"), s.Settings.Camera)
	row(&b, l10n.T("Segmenter"), s.Settings.Segmenter)
	row(&b, l10n.T("Model Selection"), fmt.Sprintf("%d", s.Settings.ModelSelection))
	row(&b, l10n.T("Submit Timeout"), s.Settings.SubmitTimeout.String())

	section(&b, l10n.T("Frames"))
	row(&b, l10n.T("Submitted"), fmt.Sprintf("%d", s.Loop.Submitted))
	row(&b, l10n.T("Drawn"), fmt.Sprintf("%d", s.Loop.Drawn))
	row(&b, l10n.T("Stale"), fmt.Sprintf("%d", s.Loop.Stale))
	row(&b, l10n.T("Skipped While Busy"), fmt.Sprintf("%d", s.Loop.SkippedBusy))
	row(&b, l10n.T("Errors"), fmt.Sprintf("%d", s.Loop.Errors))
	if secs := s.Duration.Seconds(); secs > 0 {
		row(&b, l10n.T("Drawn Per Second"), fmt.Sprintf("%.1f", float64(s.Loop.Drawn)/secs))
	}

	section(&b, l10n.T("Outputs"))
	if s.Outputs.RecordPath != "" {
		row(&b, l10n.T("Recording"), fmt.Sprintf("%s (%d frames)", s.Outputs.RecordPath, s.Outputs.RecordFrames))
	} else {
		row(&b, l10n.T("Recording"), l10n.T("None"))
	}
	row(&b, l10n.T("Preview"), orNone(s.Outputs.PreviewPath))
	row(&b, l10n.T("Debug Output"), orNone(s.Outputs.DebugDir))

	return b.String()
}

func section(b *strings.Builder, title string) {
	fmt.Fprintf(b, "\n## %s\n\n| %s | %s |\n|---|---|\n", title, l10n.T("Item"), l10n.T("Value"))
}

func row(b *strings.Builder, name, value string) {
	fmt.Fprintf(b, "| %s | %s |\n", name, value)
}

func deviceName(s SessionInfo) string {
	switch {
	case s.DeviceID == "":
		return ""
	case s.DeviceLabel == "" || s.DeviceLabel == s.DeviceID:
		return s.DeviceID
	default:
		return fmt.Sprintf("%s (%s)", s.DeviceLabel, s.DeviceID)
	}
}

func orNone(s string) string {
	if s == "" {
		return l10n.T("None")
	}
	return s
}

func yesNo(v bool) string {
	if v {
		return l10n.T("Yes")
	}
	return l10n.T("No")
}
