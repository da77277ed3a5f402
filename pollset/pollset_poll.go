//go:build !linux && !darwin && unix

package pollset

import (
	"sync"

	"golang.org/x/sys/unix"
)

// pollSet is the portable poll(2) fallback for unix targets with neither
// epoll nor kqueue, matching spec's own acknowledgement that "poll" is an
// acceptable concrete pollset backend alongside epoll/kqueue.
type pollSet struct {
	mu     sync.Mutex
	in     map[int]func(ok bool)
	out    map[int]func(ok bool)
	wakeR  int
	wakeW  int
	closed bool
}

func New() (Set, error) {
	var fds [2]int
	if err := unix.Pipe(fds[:]); err != nil {
		return nil, err
	}
	return &pollSet{
		in:    make(map[int]func(ok bool)),
		out:   make(map[int]func(ok bool)),
		wakeR: fds[0],
		wakeW: fds[1],
	}, nil
}

func (s *pollSet) Register(fd int, dir Direction, ready func(ok bool)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	m := s.in
	if dir == Out {
		m = s.out
	}
	if _, ok := m[fd]; ok {
		return ErrFDAlreadyRegistered
	}
	m[fd] = ready
	return nil
}

func (s *pollSet) Clean(fd int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.in, fd)
	delete(s.out, fd)
}

func (s *pollSet) Poll(timeoutMs int) error {
	s.mu.Lock()
	fds := make([]unix.PollFd, 0, len(s.in)+len(s.out)+1)
	fds = append(fds, unix.PollFd{Fd: int32(s.wakeR), Events: unix.POLLIN})
	index := make(map[int]int, len(fds))
	for fd := range s.in {
		fds = append(fds, unix.PollFd{Fd: int32(fd), Events: unix.POLLIN})
		index[fd] = len(fds) - 1
	}
	outIndex := make(map[int]int, len(s.out))
	for fd := range s.out {
		fds = append(fds, unix.PollFd{Fd: int32(fd), Events: unix.POLLOUT})
		outIndex[fd] = len(fds) - 1
	}
	s.mu.Unlock()

	n, err := unix.Poll(fds, timeoutMs)
	if err != nil {
		if err == unix.EINTR {
			return nil
		}
		return err
	}
	if n == 0 {
		return nil
	}

	if fds[0].Revents != 0 {
		var buf [64]byte
		_, _ = unix.Read(s.wakeR, buf[:])
	}

	// Callbacks are collected and invoked only after s.mu is released
	// below: a callback commonly re-enters the scheduler that owns this
	// pollset, which may concurrently call Register/Clean while holding
	// its own lock, so invoking callbacks while still holding s.mu here
	// would make the lock order depend on which goroutine got there
	// first and risk deadlock.
	type firing struct {
		cb func(ok bool)
		ok bool
	}
	var fire []firing

	s.mu.Lock()
	for fd, i := range index {
		if fds[i].Revents == 0 {
			continue
		}
		if cb, ok := s.in[fd]; ok {
			delete(s.in, fd)
			fire = append(fire, firing{cb, fds[i].Revents&(unix.POLLERR|unix.POLLHUP|unix.POLLNVAL) == 0})
		}
	}
	for fd, i := range outIndex {
		if fds[i].Revents == 0 {
			continue
		}
		if cb, ok := s.out[fd]; ok {
			delete(s.out, fd)
			fire = append(fire, firing{cb, fds[i].Revents&(unix.POLLERR|unix.POLLHUP|unix.POLLNVAL) == 0})
		}
	}
	s.mu.Unlock()

	for _, f := range fire {
		f.cb(f.ok)
	}
	return nil
}

func (s *pollSet) Wake() {
	var one [1]byte
	_, _ = unix.Write(s.wakeW, one[:])
}

func (s *pollSet) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	_ = unix.Close(s.wakeR)
	return unix.Close(s.wakeW)
}
