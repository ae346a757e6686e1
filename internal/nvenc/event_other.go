//go:build !linux

package nvenc

import "time"

// chanEvent is the portable fallback EventHandle for platforms without
// eventfd/epoll, built on a buffered channel used as a one-shot auto-reset
// signal.
type chanEvent struct {
	ch chan struct{}
}

// NewEventHandle constructs the platform completion-event primitive.
func NewEventHandle() (EventHandle, error) {
	return &chanEvent{ch: make(chan struct{}, 1)}, nil
}

func (e *chanEvent) Set() error {
	select {
	case e.ch <- struct{}{}:
	default:
	}
	return nil
}

func (e *chanEvent) Wait(timeoutMillis int) (bool, error) {
	if timeoutMillis < 0 {
		<-e.ch
		return true, nil
	}
	select {
	case <-e.ch:
		return true, nil
	case <-time.After(time.Duration(timeoutMillis) * time.Millisecond):
		return false, nil
	}
}

func (e *chanEvent) Close() error {
	return nil
}
