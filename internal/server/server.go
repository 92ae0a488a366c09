package server

import (
	"bufio"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"go.treestore/internal/auth"
	"go.treestore/internal/config"
	"go.treestore/internal/logger"
	"go.treestore/internal/metrics"
)

type Server struct {
	cfg     *config.Config
	auth    *auth.Authenticator
	reg     *registry
	log     *logger.Logger
	metrics *metrics.Metrics

	ln       net.Listener
	shutdown chan struct{}
	once     sync.Once

	mu    sync.Mutex
	conns map[net.Conn]struct{}
	wg    sync.WaitGroup
}

func New(cfg *config.Config, log *logger.Logger, m *metrics.Metrics) (*Server, error) {
	store, err := auth.NewFileStore(cfg.UserFile)
	if err != nil {
		return nil, err
	}

	if log == nil {
		log = logger.Nop()
	}

	return &Server{
		cfg:      cfg,
		auth:     auth.NewAuthenticator(store),
		reg:      newRegistry(cfg, m),
		log:      log,
		metrics:  m,
		shutdown: make(chan struct{}),
		conns:    make(map[net.Conn]struct{}),
	}, nil
}

// Listen binds cfg.Addr (TLS when enabled) and serves until SIGINT, SIGTERM
// or ctx is done
func (s *Server) Listen(ctx context.Context) error {
	var l net.Listener
	var err error

	if s.cfg.EnableTLS {
		cert, err := tls.LoadX509KeyPair(s.cfg.TLSCert, s.cfg.TLSKey)
		if err != nil {
			return fmt.Errorf("failed to load TLS certificate: %w", err)
		}

		tlsCfg := &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		}

		l, err = tls.Listen("tcp", s.cfg.Addr, tlsCfg)
		if err != nil {
			return fmt.Errorf("failed to start TLS listener: %w", err)
		}

		s.log.Infof("TLS enabled")
	} else {
		l, err = net.Listen("tcp", s.cfg.Addr)
		if err != nil {
			return fmt.Errorf("failed to start TCP listener: %w", err)
		}
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if s.cfg.MetricsAddr != "" {
		stopMetrics := s.serveMetrics()
		defer stopMetrics()
	}

	return s.Serve(ctx, l)
}

// serveMetrics exposes the Prometheus registry on cfg.MetricsAddr
func (s *Server) serveMetrics() func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", s.metrics.Handler())

	hs := &http.Server{
		Addr:              s.cfg.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Errorf("metrics listener: %v", err)
		}
	}()
	s.log.Infof("metrics on %s/metrics", s.cfg.MetricsAddr)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = hs.Shutdown(ctx)
	}
}

// Serve accepts connections on l until ctx is done or Close is called
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	s.mu.Lock()
	s.ln = l
	s.mu.Unlock()
	s.log.Infof("server listening on %s", l.Addr())

	go func() {
		select {
		case <-ctx.Done():
			s.Close()
		case <-s.shutdown:
		}
	}()

	for {
		conn, err := l.Accept()

		select {
		case <-s.shutdown:
			if conn != nil {
				conn.Close()
			}
			s.wg.Wait()
			s.reg.closeAll()
			s.log.Infof("server stopped")
			return nil
		default:
		}

		if err != nil {
			s.log.Warnf("accept: %v", err)
			continue
		}

		s.track(conn, true)
		s.wg.Add(1)
		go s.handleConn(conn)
	}
}

func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Close stops accepting and hangs up every open connection
func (s *Server) Close() {
	s.once.Do(func() {
		s.log.Infof("Server shutting down...")
		close(s.shutdown)

		s.mu.Lock()
		if s.ln != nil {
			s.ln.Close()
		}
		for conn := range s.conns {
			conn.Write([]byte("\n" + Shutdown + "\n"))
			conn.Close()
		}
		s.mu.Unlock()
	})
}

func (s *Server) track(conn net.Conn, add bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if add {
		select {
		case <-s.shutdown:
			conn.Close()
		default:
			s.conns[conn] = struct{}{}
		}
	} else {
		delete(s.conns, conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer s.wg.Done()

	sess := newSession(s.reg, s.log, s.cfg.RateLimit)
	sess.log.Infof("connection from %s", conn.RemoteAddr())

	defer func() {
		sess.CloseDB()
		s.track(conn, false)
		conn.Close()
		sess.log.Infof("connection closed")
	}()

	reader := bufio.NewScanner(conn)

	conn.Write([]byte(Prompt))

	for reader.Scan() {
		select {
		case <-s.shutdown:
			return
		default:
		}

		var resp Response
		if sess.Allow() {
			resp = s.exec(sess, reader.Text())
		} else {
			resp = Err(Throttled)
		}

		if _, err := conn.Write([]byte(resp.Msg + "\n")); err != nil {
			return
		}

		if resp.Close {
			return
		}

		conn.Write([]byte(Prompt))
	}
}

func (s *Server) exec(sess *Session, line string) Response {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return Respond("")
	}

	switch strings.ToUpper(parts[0]) {
	case "AUTH":
		return s.authCommand(sess, parts)
	case "OPEN":
		return s.openDBCommand(sess, parts)
	case "SET":
		return setCommand(sess, parts)
	case "GET":
		return getCommand(sess, parts)
	case "CLOSE":
		sess.CloseDB()
		return Respond(OK)
	case "EXIT":
		return exitCommand(sess)
	case "CREATEUSER":
		return s.createUserCommand(sess, parts)
	case "DELUSER":
		return s.delUserCommand(sess, parts)
	case "GRANTDB":
		return s.grantDBCommand(sess, parts)
	case "REVOKEDB":
		return s.revokeDBCommand(sess, parts)
	case "CREATEDB":
		return s.createDBCommand(sess, parts)
	case "DROPDB":
		return s.dropDBCommand(sess, parts)
	default:
		return Err(Unknown)
	}
}
