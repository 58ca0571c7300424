package overrides

import "time"

// Observer receives timing and outcome data for init and resolution calls.
// Implementations must be safe for concurrent use.
type Observer interface {
	ObserveInit(plugin string, overrides int, duration time.Duration, err error)
	ObserveResolution(plugin string, applied int, duration time.Duration, err error)
}

type noopObserver struct{}

func (noopObserver) ObserveInit(string, int, time.Duration, error) {}

func (noopObserver) ObserveResolution(string, int, time.Duration, error) {}
