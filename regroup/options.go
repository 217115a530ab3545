package regroup

import (
	"log/slog"
	"math/rand"
)

type options struct {
	logger *slog.Logger
	rand   *rand.Rand
}

func loadOptions(opts ...Option) options {
	o := options{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt.apply(&o)
	}
	if o.rand == nil {
		o.rand = rand.New(rand.NewSource(rand.Int63()))
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

type randOption struct{ r *rand.Rand }

func (r randOption) apply(o *options) {
	o.rand = r.r
}

// WithRand sets the random source used by the random and poisson placers.
func WithRand(r *rand.Rand) Option {
	return randOption{r}
}
