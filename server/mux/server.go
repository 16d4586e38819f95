//go:build linux

package mux

import (
	"chatserver/common/message"
	"chatserver/common/utils"
	"chatserver/server/processes"
	srvutils "chatserver/server/utils"
	"errors"
	"fmt"
	"net"
	"sync/atomic"
	"syscall"

	"golang.org/x/sys/unix"
)

// Options tune the server.
type Options struct {
	Workers  int
	Queue    int
	MaxFrame uint32
}

// Server owns one epoll set holding the listener and every idle client
// connection. A readable connection is removed from the set, one frame is
// read on the loop and the command goes to the worker pool; the worker adds
// the connection back after replying.
type Server struct {
	ln       net.Listener
	lfd      int
	epfd     int
	wakefd   int
	proc     *processes.Processor
	mgr      *processes.UserMgr
	pool     *ThreadPool
	maxFrame uint32
	log      *srvutils.Logger

	started atomic.Bool
	closing atomic.Bool
	done    chan struct{}
}

// rawFD returns the descriptor behind c without duplicating it.
func rawFD(c syscall.Conn) (int, error) {
	rc, err := c.SyscallConn()
	if err != nil {
		return -1, err
	}
	fd := -1
	if err := rc.Control(func(f uintptr) { fd = int(f) }); err != nil {
		return -1, err
	}
	return fd, nil
}

// NewServer registers ln in a fresh epoll set. Failing to create the set is
// fatal for the caller.
func NewServer(ln net.Listener, proc *processes.Processor, opts Options, log *srvutils.Logger) (*Server, error) {
	sc, ok := ln.(syscall.Conn)
	if !ok {
		return nil, fmt.Errorf("listener %T exposes no descriptor", ln)
	}
	lfd, err := rawFD(sc)
	if err != nil {
		return nil, fmt.Errorf("listener descriptor: %w", err)
	}
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("create epoll instance: %w", err)
	}
	wakefd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		unix.Close(epfd)
		return nil, fmt.Errorf("create eventfd: %w", err)
	}
	if opts.MaxFrame == 0 {
		opts.MaxFrame = utils.DefaultMaxFrame
	}
	s := &Server{
		ln:       ln,
		lfd:      lfd,
		epfd:     epfd,
		wakefd:   wakefd,
		proc:     proc,
		mgr:      proc.Engine().Registry(),
		maxFrame: opts.MaxFrame,
		log:      log,
		done:     make(chan struct{}),
	}
	s.pool = NewThreadPool(opts.Workers, opts.Queue, s.process)
	for _, fd := range []int{lfd, wakefd} {
		if err := s.watch(fd); err != nil {
			unix.Close(epfd)
			unix.Close(wakefd)
			return nil, fmt.Errorf("register descriptor %d: %w", fd, err)
		}
	}
	return s, nil
}

func (s *Server) Addr() net.Addr { return s.ln.Addr() }

func (s *Server) watch(fd int) error {
	ev := unix.EpollEvent{
		Events: unix.EPOLLIN | unix.EPOLLRDHUP,
		Fd:     int32(fd),
	}
	return unix.EpollCtl(s.epfd, unix.EPOLL_CTL_ADD, fd, &ev)
}

func (s *Server) unwatch(fd int) error {
	return unix.EpollCtl(s.epfd, unix.EPOLL_CTL_DEL, fd, nil)
}

// Run is the readiness loop. It returns nil after Close.
func (s *Server) Run() error {
	s.started.Store(true)
	defer close(s.done)
	s.pool.Start()
	defer s.shutdown()

	s.log.Info("listening on %s", s.ln.Addr())
	events := make([]unix.EpollEvent, 128)
	for {
		n, err := unix.EpollWait(s.epfd, events, -1)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return fmt.Errorf("epoll wait: %w", err)
		}
		for i := 0; i < n; i++ {
			switch fd := int(events[i].Fd); fd {
			case s.wakefd:
				return nil
			case s.lfd:
				s.accept()
			default:
				s.readable(fd)
			}
		}
	}
}

func (s *Server) shutdown() {
	s.mgr.CloseAll()
	s.pool.Stop()
	unix.Close(s.epfd)
	unix.Close(s.wakefd)
	s.ln.Close()
	s.log.Info("server stopped")
}

// Close stops the loop and waits for it to finish.
func (s *Server) Close() error {
	if !s.closing.CompareAndSwap(false, true) {
		return nil
	}
	if !s.started.Load() {
		unix.Close(s.epfd)
		unix.Close(s.wakefd)
		return s.ln.Close()
	}
	if _, err := unix.Write(s.wakefd, []byte{1, 0, 0, 0, 0, 0, 0, 0}); err != nil {
		return fmt.Errorf("wake loop: %w", err)
	}
	<-s.done
	return nil
}

func (s *Server) accept() {
	conn, err := s.ln.Accept()
	if err != nil {
		s.log.Warn("accept: %v", err)
		return
	}
	sc, ok := conn.(syscall.Conn)
	if !ok {
		conn.Close()
		return
	}
	fd, err := rawFD(sc)
	if err != nil {
		s.log.Warn("descriptor of %s: %v", conn.RemoteAddr(), err)
		conn.Close()
		return
	}
	sess := processes.NewSession(fd, conn)
	sess.Tf.MaxFrame = s.maxFrame
	s.mgr.AddSession(sess)
	if err := s.watch(fd); err != nil {
		s.log.Warn("register %s: %v", sess, err)
		s.mgr.Teardown(sess)
		return
	}
	s.log.Debug("accepted %s", sess)
}

// readable handles one readiness event of a client connection on the loop.
func (s *Server) readable(fd int) {
	sess, ok := s.mgr.GetSession(fd)
	if err := s.unwatch(fd); err != nil {
		s.log.Debug("unwatch %d: %v", fd, err)
	}
	if !ok {
		return
	}
	data, err := sess.Tf.ReadPkg()
	if err != nil {
		if !errors.Is(err, utils.ErrPeerClosed) {
			s.log.Warn("read %s: %v", sess, err)
		}
		s.teardown(sess)
		return
	}
	if message.IsQuit(data) {
		s.teardown(sess)
		return
	}
	cmd, err := message.DecodeCommand(data)
	if err != nil {
		s.log.Warn("%s: %v", sess, err)
		if err := sess.Tf.WriteString(message.TokenInvalid); err != nil {
			s.teardown(sess)
			return
		}
		s.rewatch(sess)
		return
	}
	switch cmd.Flag {
	case message.Quit:
		s.teardown(sess)
	case message.SetRecvFd:
		if err := s.proc.BindNotify(sess, cmd); err != nil {
			s.teardown(sess)
			return
		}
		s.rewatch(sess)
	default:
		s.pool.Submit(Task{Session: sess, Cmd: cmd})
	}
}

// process runs on a worker. A handler panic only costs its connection.
func (s *Server) process(id int, t Task) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("worker %d: %s panicked on %s: %v", id, t.Session, t.Cmd.Flag, r)
			s.teardown(t.Session)
		}
	}()
	if err := s.proc.ServerProcessMes(t.Session, t.Cmd); err != nil {
		if !errors.Is(err, utils.ErrPeerClosed) {
			s.log.Warn("worker %d: %s: %v", id, t.Session, err)
		}
		s.teardown(t.Session)
		return
	}
	s.rewatch(t.Session)
}

// rewatch puts sess back into the set unless it was torn down meanwhile.
func (s *Server) rewatch(sess *processes.Session) {
	if cur, ok := s.mgr.GetSession(sess.FD); !ok || cur != sess {
		return
	}
	if err := s.watch(sess.FD); err != nil {
		s.log.Warn("re-register %s: %v", sess, err)
		s.mgr.Teardown(sess)
	}
}

func (s *Server) teardown(sess *processes.Session) {
	_ = s.unwatch(sess.FD)
	s.mgr.Teardown(sess)
}
