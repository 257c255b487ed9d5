package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/smartap-lifecycle/internal/device"
	"github.com/muurk/smartap-lifecycle/internal/deviceconfig"
	"github.com/muurk/smartap-lifecycle/internal/lifecycle"
	"github.com/muurk/smartap-lifecycle/internal/logging"
	"github.com/muurk/smartap-lifecycle/internal/notify"
)

// ErrAlreadyStarted is returned by a second Start.
var ErrAlreadyStarted = errors.New("server already started")

// Config holds the server configuration
type Config struct {
	Addr     string
	Username string // Basic auth; empty disables authentication
	Password string
	CertPath string // TLS is enabled when both paths are set
	KeyPath  string

	// Reported in the device view
	SoftwareVersion string
	NetworkLibrary  string
}

// Server is the device's local configuration server.
type Server struct {
	config   *Config
	upgrader websocket.Upgrader
	hub      *hub

	mu       sync.Mutex
	dev      *device.Context
	triggers *lifecycle.Triggers
	http     *http.Server
	listener net.Listener
	wg       sync.WaitGroup
}

var _ lifecycle.Service = (*Server)(nil)

// New creates a new Server instance
func New(config *Config) *Server {
	return &Server{
		config: config,
		hub:    newHub(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Configurators connect from arbitrary LAN origins.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Start binds the listener, subscribes the event stream to the device's
// notifications and serves in the background until ctx is done.
func (s *Server) Start(ctx context.Context, dev *device.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.http != nil {
		return ErrAlreadyStarted
	}

	var tlsConfig *tls.Config
	if s.config.CertPath != "" && s.config.KeyPath != "" {
		var err error
		if tlsConfig, err = NewTLSConfig(s.config.CertPath, s.config.KeyPath); err != nil {
			return err
		}
	}

	listener, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Addr, err)
	}
	if tlsConfig != nil {
		logging.Info("TLS Configuration", zap.Any("tls_info", GetTLSInfo(tlsConfig)))
		listener = tls.NewListener(listener, tlsConfig)
	}

	s.dev = dev
	s.triggers = lifecycle.NewTriggers(dev)
	// While provisioning the server only reports the coming power-off;
	// network notifications are subscribed on the connected path only.
	kinds := []notify.Kind{notify.SysWillPowerOff}
	if dev.Store.Snapshot().IsConfigured() {
		kinds = append(kinds, notify.WifiStatusChanged, notify.WifiParamsChanged, notify.DhcpCompleted)
	}
	for _, kind := range kinds {
		if err := dev.Registry.Register(kind, notify.SubscriberFunc(s.forward)); err != nil {
			_ = listener.Close()
			return fmt.Errorf("failed to subscribe event stream: %w", err)
		}
	}

	s.listener = listener
	s.http = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logging.Info("Local configuration server listening",
		zap.String("addr", listener.Addr().String()),
		zap.Bool("tls", tlsConfig != nil),
	)

	srv := s.http
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Local configuration server stopped", zap.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Shutdown(shutdownCtx)
	}()
	return nil
}

// forward turns a notification into an event stream message.
func (s *Server) forward(_ context.Context, ev notify.Event) error {
	if s.hub.count() == 0 {
		return nil
	}
	s.hub.publish(deviceconfig.EventMessage{
		Session: s.dev.SessionID.String(),
		Kind:    ev.Kind().String(),
		Time:    time.Now().UTC(),
		Data:    notify.Describe(ev),
	})
	return nil
}

// Addr returns the bound listener address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.http
	s.mu.Unlock()
	if srv == nil {
		return nil
	}

	logging.Info("Shutting down local configuration server...")
	s.hub.shutdown()
	err := srv.Shutdown(ctx)

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		logging.Warn("Shutdown timeout, forcing close")
		_ = srv.Close()
	}
	return err
}

// GetActiveConnections returns the number of connected event stream clients
func (s *Server) GetActiveConnections() int {
	return s.hub.count()
}
