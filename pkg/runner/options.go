package runner

import (
	"io"
	"log/slog"
)

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithSource configures where commands are read from.
func WithSource(source CommandSource) Option {
	return func(r *Runner) {
		r.Source = source
	}
}

// WithNotifier configures where help and apologies are written.
func WithNotifier(n Notifier) Option {
	return func(r *Runner) {
		r.Notifier = n
	}
}

// WithNoticeWriter writes help and apologies as plain lines to w.
func WithNoticeWriter(w io.Writer) Option {
	return func(r *Runner) {
		r.Notifier = writerNotifier{w: w}
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.Logger = logger
	}
}

// WithChannel sets the channel rejection threads are opened in.
func WithChannel(channelID string) Option {
	return func(r *Runner) {
		r.ChannelID = channelID
	}
}

// WithAutoStart starts a run as soon as the loop begins.
func WithAutoStart(auto bool) Option {
	return func(r *Runner) {
		r.AutoStart = auto
	}
}

// WithSignals toggles SIGINT/SIGTERM handling.
func WithSignals(enabled bool) Option {
	return func(r *Runner) {
		r.HandleSignals = enabled
	}
}
