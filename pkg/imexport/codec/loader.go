package codec

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/gui-xie/import-export/pkg/imexport/codec/payload"
)

// State is the lifecycle state of a Loader.
type State int

const (
	StateUnloaded State = iota
	StateLoading
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// InitFunc builds a codec from a decoded payload.
type InitFunc func(raw []byte) (*Codec, error)

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLogger sets the loader's logger.
func WithLogger(logger zerolog.Logger) LoaderOption {
	return func(l *Loader) { l.logger = logger }
}

// WithInit replaces the function that turns the decoded payload into a
// codec.
func WithInit(fn InitFunc) LoaderOption {
	return func(l *Loader) { l.init = fn }
}

// WithInitHook registers a function called once when loading finishes.
func WithInitHook(fn func(elapsed time.Duration, err error)) LoaderOption {
	return func(l *Loader) { l.hook = fn }
}

// Loader loads a codec exactly once. Every caller that arrives before the
// load finishes waits for the same in-flight initialization; a failure is
// terminal and returned to every later caller.
type Loader struct {
	payload []byte
	init    InitFunc
	hook    func(time.Duration, error)
	logger  zerolog.Logger

	mu    sync.Mutex
	state State
	done  chan struct{}
	codec *Codec
	err   error
}

// NewLoader returns a loader for the given embedded payload.
func NewLoader(raw []byte, opts ...LoaderOption) *Loader {
	l := &Loader{
		payload: raw,
		init:    Initialize,
		logger:  zerolog.Nop(),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

var defaultLoader = sync.OnceValue(func() *Loader {
	return NewLoader([]byte(payload.Default))
})

// DefaultLoader returns the process-wide loader for the embedded profile.
func DefaultLoader() *Loader {
	return defaultLoader()
}

// State returns the current state.
func (l *Loader) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Ready returns the loaded codec, starting the load on first use. If ctx
// ends first Ready returns ctx.Err(); the load itself carries on.
func (l *Loader) Ready(ctx context.Context) (*Codec, error) {
	l.mu.Lock()
	switch l.state {
	case StateReady:
		c := l.codec
		l.mu.Unlock()
		return c, nil
	case StateFailed:
		err := l.err
		l.mu.Unlock()
		return nil, err
	case StateUnloaded:
		l.state = StateLoading
		go l.load()
	}
	l.mu.Unlock()

	select {
	case <-l.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == StateFailed {
		return nil, l.err
	}
	return l.codec, nil
}

func (l *Loader) load() {
	start := time.Now()
	c, err := l.build()
	elapsed := time.Since(start)

	l.mu.Lock()
	if err != nil {
		l.state = StateFailed
		l.err = err
	} else {
		l.state = StateReady
		l.codec = c
	}
	close(l.done)
	l.mu.Unlock()

	if err != nil {
		l.logger.Error().Err(err).Dur("elapsed", elapsed).Msg("codec initialization failed")
	} else {
		l.logger.Debug().Dur("elapsed", elapsed).Msg("codec initialized")
	}
	if l.hook != nil {
		l.hook(elapsed, err)
	}
}

func (l *Loader) build() (c *Codec, err error) {
	defer func() {
		if r := recover(); r != nil {
			c, err = nil, &InitError{Stage: "initialize", Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	raw, err := DecodePayload(l.payload)
	if err != nil {
		return nil, err
	}
	c, err = l.init(raw)
	if err != nil {
		return nil, &InitError{Stage: "initialize", Err: err}
	}
	if c == nil {
		return nil, &InitError{Stage: "initialize", Err: fmt.Errorf("initializer returned no codec")}
	}
	return c, nil
}
