package connection

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Options contains configuration for the pagination engine
type Options struct {
	// DefaultPageSize is the page size used when neither first nor last
	// is specified
	DefaultPageSize int

	// MaxPageSize is the maximum effective page size. Requests exceeding
	// it are clamped to the maximum, not rejected.
	MaxPageSize int

	// IncludeTotal controls whether Paginate fills Connection.TotalCount.
	// It only takes effect when the source implements source.Counter.
	IncludeTotal bool

	// Logger receives debug-level engine logs. Nil means silent.
	Logger *logrus.Logger
}

// DefaultOptions returns default engine options
func DefaultOptions() *Options {
	return &Options{
		DefaultPageSize: 20,
		MaxPageSize:     100,
	}
}

var nopLogger = func() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}()

func (o *Options) logger() *logrus.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return nopLogger
}

// clamp bounds a requested page size to the configured maximum.
func (o *Options) clamp(size int) int {
	if o.MaxPageSize > 0 && size > o.MaxPageSize {
		return o.MaxPageSize
	}
	return size
}

// normalized fills missing options with defaults.
func (o *Options) normalized() *Options {
	if o == nil {
		return DefaultOptions()
	}
	out := *o
	if out.DefaultPageSize <= 0 {
		out.DefaultPageSize = 20
	}
	if out.MaxPageSize <= 0 {
		out.MaxPageSize = 100
	}
	return &out
}
