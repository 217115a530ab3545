package layerio

import "log/slog"

type options struct {
	logger   *slog.Logger
	progress bool
}

func loadOptions(opts ...Option) options {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt.apply(&o)
	}
	return o
}

type Option interface {
	apply(*options)
}

type loggerOption struct{ l *slog.Logger }

func (l loggerOption) apply(o *options) {
	o.logger = l.l
}

// Default: slog.Default()
func WithLogger(l *slog.Logger) Option {
	return loggerOption{l}
}

type progressOption bool

func (p progressOption) apply(o *options) {
	o.progress = bool(p)
}

// WithProgress draws a progress bar on stderr while files are read.
// Default: false
func WithProgress(enabled bool) Option {
	return progressOption(enabled)
}
