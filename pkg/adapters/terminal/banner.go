package terminal

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

// PrintBanner writes the ASCII art banner followed by the version.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	if !IsTerminal(w) {
		out = termenv.NewOutput(w, termenv.WithProfile(termenv.Ascii))
	}

	lines := []struct {
		text  string
		color string
	}{
		{"     _              _          ", "#818cf8"},
		{" ___| |_ ___ _ __ _| |_ ___ __", "#a78bfa"},
		{"/ __| __/ _ \\ '_ \\ \\ /\\ / / / __|", "#c084fc"},
		{"\\__ \\ ||  __/ |_) \\ V  V /| \\__ \\", "#e879f9"},
		{"|___/\\__\\___| .__/ \\_/\\_/ |_|___/", "#f472b6"},
		{"            |_|                   ", "#fb7185"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w, out.String("  v"+strings.TrimSpace(version)).Faint())
	fmt.Fprintln(w)
}
