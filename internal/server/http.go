package server

import (
	"bufio"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"go.uber.org/zap"

	"github.com/muurk/smartap-lifecycle/internal/deviceconfig"
	"github.com/muurk/smartap-lifecycle/internal/logging"
)

// Handler returns the server's routes wrapped in request logging and
// basic authentication.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleView)
	mux.HandleFunc("POST /{$}", s.handleCredentials)
	mux.HandleFunc("POST /system", s.handleSystem)
	mux.HandleFunc("GET /events", s.handleEvents)
	return logRequests(s.requireAuth(mux))
}

func (s *Server) handleView(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.dev.View(s.config.SoftwareVersion, s.config.NetworkLibrary))
}

// handleCredentials is the credential intake used by provisioning and by
// configurators re-pointing a connected device.
func (s *Server) handleCredentials(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "malformed form", http.StatusBadRequest)
		return
	}

	wc := deviceconfig.WiFiConfigFromForm(r.PostForm)
	if wc == nil {
		http.Error(w, "missing "+deviceconfig.FormSSID, http.StatusBadRequest)
		return
	}
	creds, err := wc.Credentials()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.triggers.ApplyCredentials(creds); err != nil {
		logging.Error("Failed to apply credentials", zap.Error(err))
		http.Error(w, "failed to store credentials", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSystem(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "malformed form", http.StatusBadRequest)
		return
	}

	cmd, err := deviceconfig.ParseSystemCommand(r.PostForm.Get(deviceconfig.FormSystem))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// The transition runs on the controller; persistence failures are
	// reported but the request itself was accepted.
	if err := s.triggers.Execute(cmd); err != nil {
		logging.Warn("System command completed with errors", zap.String("command", string(cmd)), zap.Error(err))
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		logging.Warn("Websocket upgrade failed", zap.String("remote_addr", r.RemoteAddr), zap.Error(err))
		return
	}
	logging.LogConnection(r.RemoteAddr, "websocket_upgraded")

	c := s.hub.add(conn)
	go c.writePump(r.RemoteAddr)
	c.readPump()
	s.hub.remove(c)
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	if s.config.Username == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok ||
			subtle.ConstantTimeCompare([]byte(user), []byte(s.config.Username)) != 1 ||
			subtle.ConstantTimeCompare([]byte(pass), []byte(s.config.Password)) != 1 {
			w.Header().Set("WWW-Authenticate", `Basic realm="smartap"`)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response code for logging. It forwards
// Hijack so websocket upgrades pass through.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logging.LogHTTPRequest(r.RemoteAddr, r.Method, r.URL.Path, rec.status)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Debug("Failed to write response", zap.Error(err))
	}
}
