//go:build linux

package pollset

import (
	"sync"

	"golang.org/x/sys/unix"
)

// epollSet is the Linux backend, grounded on the direct-indexed epoll
// adapter this package's contract was extracted from: one epoll instance,
// fired callbacks collected under a single mutex and invoked after it is
// released, and a version-free design
// since here the mutex (not a version counter) is the source of truth
// between registration and dispatch.
type epollSet struct {
	epfd   int
	wakeFd int

	mu        sync.Mutex
	interests map[int]*fdInterest
	closed    bool

	eventBuf [256]unix.EpollEvent
}

type fdInterest struct {
	in, out func(ok bool)
	mask    uint32
}

// New creates the epoll-backed Set for this process.
func New() (Set, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	wakeFd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		_ = unix.Close(epfd)
		return nil, err
	}
	s := &epollSet{
		epfd:      epfd,
		wakeFd:    wakeFd,
		interests: make(map[int]*fdInterest),
	}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, wakeFd, &unix.EpollEvent{
		Events: unix.EPOLLIN,
		Fd:     int32(wakeFd),
	}); err != nil {
		_ = unix.Close(epfd)
		_ = unix.Close(wakeFd)
		return nil, err
	}
	return s, nil
}

func (s *epollSet) Register(fd int, dir Direction, ready func(ok bool)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	fi, ok := s.interests[fd]
	op := uint32(unix.EPOLL_CTL_MOD)
	if !ok {
		fi = &fdInterest{}
		s.interests[fd] = fi
		op = unix.EPOLL_CTL_ADD
	}
	switch dir {
	case In:
		if fi.in != nil {
			return ErrFDAlreadyRegistered
		}
		fi.in = ready
		fi.mask |= unix.EPOLLIN
	case Out:
		if fi.out != nil {
			return ErrFDAlreadyRegistered
		}
		fi.out = ready
		fi.mask |= unix.EPOLLOUT
	}
	return unix.EpollCtl(s.epfd, int(op), fd, &unix.EpollEvent{Events: fi.mask, Fd: int32(fd)})
}

func (s *epollSet) Clean(fd int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.interests[fd]; !ok {
		return
	}
	delete(s.interests, fd)
	_ = unix.EpollCtl(s.epfd, unix.EPOLL_CTL_DEL, fd, nil)
}

func (s *epollSet) Poll(timeoutMs int) error {
	n, err := unix.EpollWait(s.epfd, s.eventBuf[:], timeoutMs)
	if err != nil {
		if err == unix.EINTR {
			return nil
		}
		return err
	}

	// Callbacks are collected here and invoked only after s.mu is
	// released below: a callback commonly re-enters the scheduler that
	// owns this pollset, which in turn may call back into Register/Clean
	// on another goroutine — invoking callbacks while still holding s.mu
	// would make the lock order depend on which goroutine got there
	// first (scheduler-then-pollset vs. pollset-then-scheduler) and risk
	// deadlock.
	type firing struct {
		cb func(ok bool)
		ok bool
	}
	var fire []firing

	s.mu.Lock()
	for i := 0; i < n; i++ {
		fd := int(s.eventBuf[i].Fd)
		if fd == s.wakeFd {
			var buf [8]byte
			_, _ = unix.Read(s.wakeFd, buf[:])
			continue
		}
		fi, ok := s.interests[fd]
		if !ok {
			continue
		}
		events := s.eventBuf[i].Events
		bad := events&(unix.EPOLLERR|unix.EPOLLHUP) != 0
		var fired bool
		if (events&unix.EPOLLIN != 0 || bad) && fi.in != nil {
			cb := fi.in
			fi.in = nil
			fi.mask &^= unix.EPOLLIN
			fired = true
			fire = append(fire, firing{cb, !bad})
		}
		if (events&unix.EPOLLOUT != 0 || bad) && fi.out != nil {
			cb := fi.out
			fi.out = nil
			fi.mask &^= unix.EPOLLOUT
			fired = true
			fire = append(fire, firing{cb, !bad})
		}
		if fired {
			if fi.mask == 0 {
				delete(s.interests, fd)
				_ = unix.EpollCtl(s.epfd, unix.EPOLL_CTL_DEL, fd, nil)
			} else {
				_ = unix.EpollCtl(s.epfd, unix.EPOLL_CTL_MOD, fd, &unix.EpollEvent{Events: fi.mask, Fd: int32(fd)})
			}
		}
	}
	s.mu.Unlock()

	for _, f := range fire {
		f.cb(f.ok)
	}
	return nil
}

func (s *epollSet) Wake() {
	var one [8]byte
	one[0] = 1
	_, _ = unix.Write(s.wakeFd, one[:])
}

func (s *epollSet) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	_ = unix.Close(s.wakeFd)
	return unix.Close(s.epfd)
}
