package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{`     _            _             _          `, "#38bdf8"},
	{`  __| | ___   ___| | ____      _(_)___  ___ `, "#22d3ee"},
	{` / _' |/ _ \ / __| |/ /\ \ /\ / / / __|/ _ \`, "#2dd4bf"},
	{`| (_| | (_) | (__|   <  \ V  V /| \__ \  __/`, "#34d399"},
	{` \__,_|\___/ \___|_|\_\  \_/\_/ |_|___/\___|`, "#4ade80"},
}

// PrintBanner writes the dockwise banner and version to w.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	if v := strings.TrimSpace(version); v != "" {
		fmt.Fprintln(w, out.String("  v"+v).Faint())
	}
	fmt.Fprintln(w)
}

// Level classifies a diagnostic line.
type Level int

const (
	LevelInfo Level = iota
	LevelWarn
	LevelError
)

// Diagnostic writes a colored one-line status message to w, as used by
// validate and nlu status.
func Diagnostic(w io.Writer, level Level, format string, args ...any) {
	out := termenv.NewOutput(w)
	var mark termenv.Style
	switch level {
	case LevelWarn:
		mark = out.String("!").Foreground(out.Color("#facc15")).Bold()
	case LevelError:
		mark = out.String("x").Foreground(out.Color("#f87171")).Bold()
	default:
		mark = out.String("✓").Foreground(out.Color("#4ade80")).Bold()
	}
	fmt.Fprintf(w, "%s %s\n", mark, fmt.Sprintf(format, args...))
}
