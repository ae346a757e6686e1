//go:build linux

package nvenc

import (
	"encoding/binary"

	"golang.org/x/sys/unix"
)

// linuxEvent implements EventHandle as an eventfd registered with an
// epoll instance, so Wait can honour a timeout without spinning. This
// mirrors the auto-reset Win32 event the driver waits on upstream: Set
// arms the fd, Wait consumes exactly one notification and rearms nothing
// (the next Set is required to wake it again).
type linuxEvent struct {
	evFd    int
	pollFd  int
}

// NewEventHandle constructs the platform completion-event primitive.
func NewEventHandle() (EventHandle, error) {
	evFd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		return nil, newError("new_event_handle", KindAllocationFailed, err)
	}
	pollFd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		unix.Close(evFd)
		return nil, newError("new_event_handle", KindAllocationFailed, err)
	}
	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(evFd)}
	if err := unix.EpollCtl(pollFd, unix.EPOLL_CTL_ADD, evFd, &ev); err != nil {
		unix.Close(pollFd)
		unix.Close(evFd)
		return nil, newError("new_event_handle", KindAllocationFailed, err)
	}
	return &linuxEvent{evFd: evFd, pollFd: pollFd}, nil
}

// Set signals the event by writing a single counter increment.
func (e *linuxEvent) Set() error {
	var buf [8]byte
	binary.NativeEndian.PutUint64(buf[:], 1)
	_, err := unix.Write(e.evFd, buf[:])
	if err != nil {
		return newError("event_set", KindInternalError, err)
	}
	return nil
}

// Wait blocks until Set is called or timeoutMillis elapses, draining the
// eventfd counter so the event auto-resets. timeoutMillis < 0 waits
// indefinitely.
func (e *linuxEvent) Wait(timeoutMillis int) (bool, error) {
	events := make([]unix.EpollEvent, 1)
	n, err := unix.EpollWait(e.pollFd, events, timeoutMillis)
	if err != nil {
		if err == unix.EINTR {
			return false, nil
		}
		return false, newError("event_wait", KindInternalError, err)
	}
	if n == 0 {
		return false, nil
	}

	var buf [8]byte
	if _, err := unix.Read(e.evFd, buf[:]); err != nil && err != unix.EAGAIN {
		return false, newError("event_wait", KindInternalError, err)
	}
	return true, nil
}

// Close releases the epoll instance and the eventfd.
func (e *linuxEvent) Close() error {
	err1 := unix.Close(e.pollFd)
	err2 := unix.Close(e.evFd)
	if err1 != nil {
		return newError("event_close", KindInternalError, err1)
	}
	if err2 != nil {
		return newError("event_close", KindInternalError, err2)
	}
	return nil
}
