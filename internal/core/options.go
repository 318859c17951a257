package core

import (
	"time"
)

const (
	defCacheTTL        = 15 * time.Second
	defMaxQueryRuntime = 5 * time.Minute
)

// Options passed to the charon Service on creation.
type Options struct {
	// CacheTTL is how long resolved job snapshots may live in the cache.
	// Kept short; the cache is a read accelerator, never the truth.
	CacheTTL time.Duration

	// MaxQueryRuntime bounds a single oracle computation. Past this the
	// job fails rather than hanging a worker forever.
	MaxQueryRuntime time.Duration

	// RunWorkers registers oracle handlers on the queue so this process
	// can execute jobs. API-only processes leave this off.
	RunWorkers bool

	// Debug enables chatty logging.
	Debug bool
}

func (o *Options) SetDefaults() {
	if o.CacheTTL <= 0 {
		o.CacheTTL = defCacheTTL
	}
	if o.MaxQueryRuntime <= 0 {
		o.MaxQueryRuntime = defMaxQueryRuntime
	}
}

// OptionsClientDefault runs a charon service that executes no jobs itself;
// intended for processes that only serve the API.
func OptionsClientDefault() *Options {
	return &Options{}
}

// OptionsServerDefault runs a charon service that registers handlers and
// works jobs off the queue.
func OptionsServerDefault() *Options {
	return &Options{RunWorkers: true}
}
