package recovery

import (
	"fmt"
	"sync"

	"github.com/wudi/pdfimpose/observability"
)

// StrictStrategy implements a fail-fast recovery strategy.
type StrictStrategy struct{}

func NewStrictStrategy() *StrictStrategy {
	return &StrictStrategy{}
}

func (s *StrictStrategy) OnError(ctx Context, err error, location Location) Action {
	return ActionFail
}

// LenientStrategy keeps going on malformed input. Every error is recorded
// and reported to the logger at warn level.
type LenientStrategy struct {
	mu     sync.Mutex
	logger observability.Logger
	Errors []error
}

func NewLenientStrategy(logger observability.Logger) *LenientStrategy {
	if logger == nil {
		logger = observability.NopLogger{}
	}
	return &LenientStrategy{logger: logger}
}

func (s *LenientStrategy) OnError(ctx Context, err error, location Location) Action {
	if ctx != nil {
		select {
		case <-ctx.Done():
			return ActionFail
		default:
		}
	}
	s.mu.Lock()
	s.Errors = append(s.Errors, fmt.Errorf("[%s] offset %d: %w", location.Component, location.ByteOffset, err))
	s.mu.Unlock()
	s.logger.Warn("recovered from malformed input",
		observability.String("component", location.Component),
		observability.Int64("offset", location.ByteOffset),
		observability.Error("error", err),
	)
	return ActionWarn
}

// Count returns the number of errors recovered so far.
func (s *LenientStrategy) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Errors)
}
