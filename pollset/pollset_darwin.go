//go:build darwin

package pollset

import (
	"sync"

	"golang.org/x/sys/unix"
)

// kqueueSet is the Darwin backend, grounded on the kqueue adapter this
// package's contract was extracted from: EVFILT_READ/EVFILT_WRITE are
// independent filters in kqueue already, so (unlike epoll) each direction
// maps to its own kevent without needing a combined interest mask.
type kqueueSet struct {
	kq     int
	wakeR  int
	wakeW  int
	mu     sync.Mutex
	in     map[int]func(ok bool)
	out    map[int]func(ok bool)
	closed bool

	eventBuf [256]unix.Kevent_t
}

// New creates the kqueue-backed Set for this process.
func New() (Set, error) {
	kq, err := unix.Kqueue()
	if err != nil {
		return nil, err
	}
	unix.CloseOnExec(kq)

	var fds [2]int
	if err := unix.Pipe(fds[:]); err != nil {
		_ = unix.Close(kq)
		return nil, err
	}
	s := &kqueueSet{
		kq:    kq,
		wakeR: fds[0],
		wakeW: fds[1],
		in:    make(map[int]func(ok bool)),
		out:   make(map[int]func(ok bool)),
	}
	_, err = unix.Kevent(kq, []unix.Kevent_t{{
		Ident:  uint64(s.wakeR),
		Filter: unix.EVFILT_READ,
		Flags:  unix.EV_ADD | unix.EV_ENABLE,
	}}, nil, nil)
	if err != nil {
		_ = unix.Close(kq)
		_ = unix.Close(s.wakeR)
		_ = unix.Close(s.wakeW)
		return nil, err
	}
	return s, nil
}

func (s *kqueueSet) Register(fd int, dir Direction, ready func(ok bool)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	var m map[int]func(ok bool)
	var filter int16
	if dir == In {
		m, filter = s.in, unix.EVFILT_READ
	} else {
		m, filter = s.out, unix.EVFILT_WRITE
	}
	if _, ok := m[fd]; ok {
		return ErrFDAlreadyRegistered
	}
	m[fd] = ready
	_, err := unix.Kevent(s.kq, []unix.Kevent_t{{
		Ident:  uint64(fd),
		Filter: filter,
		Flags:  unix.EV_ADD | unix.EV_ENABLE,
	}}, nil, nil)
	if err != nil {
		delete(m, fd)
		return err
	}
	return nil
}

func (s *kqueueSet) Clean(fd int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.in[fd]; ok {
		delete(s.in, fd)
		_, _ = unix.Kevent(s.kq, []unix.Kevent_t{{Ident: uint64(fd), Filter: unix.EVFILT_READ, Flags: unix.EV_DELETE}}, nil, nil)
	}
	if _, ok := s.out[fd]; ok {
		delete(s.out, fd)
		_, _ = unix.Kevent(s.kq, []unix.Kevent_t{{Ident: uint64(fd), Filter: unix.EVFILT_WRITE, Flags: unix.EV_DELETE}}, nil, nil)
	}
}

func (s *kqueueSet) Poll(timeoutMs int) error {
	var ts *unix.Timespec
	if timeoutMs >= 0 {
		ts = &unix.Timespec{Sec: int64(timeoutMs / 1000), Nsec: int64((timeoutMs % 1000) * 1000000)}
	}

	n, err := unix.Kevent(s.kq, nil, s.eventBuf[:], ts)
	if err != nil {
		if err == unix.EINTR {
			return nil
		}
		return err
	}

	// Callbacks are collected and invoked only after s.mu is released
	// below, since a callback commonly re-enters the scheduler that owns
	// this pollset, and that scheduler may concurrently be calling
	// Register/Clean while holding its own lock — invoking callbacks
	// while still holding s.mu would make the lock order depend on
	// which goroutine got there first and risk deadlock.
	type firing struct {
		cb func(ok bool)
		ok bool
	}
	var fire []firing

	s.mu.Lock()
	for i := 0; i < n; i++ {
		ev := &s.eventBuf[i]
		fd := int(ev.Ident)
		if fd == s.wakeR {
			var buf [64]byte
			_, _ = unix.Read(s.wakeR, buf[:])
			continue
		}
		bad := ev.Flags&unix.EV_ERROR != 0
		switch ev.Filter {
		case unix.EVFILT_READ:
			if cb, ok := s.in[fd]; ok {
				delete(s.in, fd)
				_, _ = unix.Kevent(s.kq, []unix.Kevent_t{{Ident: uint64(fd), Filter: unix.EVFILT_READ, Flags: unix.EV_DELETE}}, nil, nil)
				fire = append(fire, firing{cb, !bad})
			}
		case unix.EVFILT_WRITE:
			if cb, ok := s.out[fd]; ok {
				delete(s.out, fd)
				_, _ = unix.Kevent(s.kq, []unix.Kevent_t{{Ident: uint64(fd), Filter: unix.EVFILT_WRITE, Flags: unix.EV_DELETE}}, nil, nil)
				fire = append(fire, firing{cb, !bad})
			}
		}
	}
	s.mu.Unlock()

	for _, f := range fire {
		f.cb(f.ok)
	}
	return nil
}

func (s *kqueueSet) Wake() {
	var one [1]byte
	_, _ = unix.Write(s.wakeW, one[:])
}

func (s *kqueueSet) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	_ = unix.Close(s.wakeR)
	_ = unix.Close(s.wakeW)
	return unix.Close(s.kq)
}
