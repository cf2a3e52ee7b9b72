// Package server serves build output and pushes reload notifications to browsers.
package server

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net"
	"net/http"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/coder/websocket"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

const (
	// SocketPath is the websocket endpoint browsers subscribe to.
	SocketPath = "/__kiln/ws"
	// ClientPath serves the reload client script.
	ClientPath = "/__kiln/client.js"

	shutdownTimeout = 5 * time.Second
)

//go:embed client.js
var clientScript []byte

var clientTag = []byte(`<script src="` + ClientPath + `"></script>`)

var _ ports.Reloader = (*Server)(nil)

// Server implements ports.Reloader over net/http.
type Server struct {
	logger ports.Logger
	hub    *hub
}

// New creates a new Server.
func New(logger ports.Logger) *Server {
	return &Server{logger: logger, hub: newHub()}
}

// Serve blocks serving root on addr until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, addr, root string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Join(domain.ErrServerFailed, zerr.With(err, "addr", addr))
	}

	srv := &http.Server{
		Handler:           s.Handler(ctx, root),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	if s.logger != nil {
		s.logger.Info("serving " + root + " at http://" + ln.Addr().String())
	}

	select {
	case err := <-errCh:
		s.hub.closeAll()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Join(domain.ErrServerFailed, zerr.With(err, "addr", addr))
	case <-ctx.Done():
	}

	s.hub.closeAll()
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Join(domain.ErrServerFailed, zerr.With(err, "addr", addr))
	}
	return nil
}

// Broadcast sends msg to every connected browser.
func (s *Server) Broadcast(msg domain.ReloadMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	s.hub.broadcast(data)
	if s.logger != nil {
		s.logger.Info("sent " + string(msg.Type) + " to " + strconv.Itoa(s.Clients()) + " browser(s)")
	}
}

// Clients returns the number of connected browsers.
func (s *Server) Clients() int {
	return s.hub.count()
}

// Handler returns the HTTP handler serving root. Websocket connections end with ctx.
func (s *Server) Handler(ctx context.Context, root string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(SocketPath, func(w http.ResponseWriter, r *http.Request) {
		s.handleSocket(ctx, w, r)
	})
	mux.HandleFunc(ClientPath, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write(clientScript)
	})
	mux.Handle("/", &fileHandler{fs: http.Dir(root)})
	return mux
}

func (s *Server) handleSocket(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"localhost:*", "127.0.0.1:*", r.Host},
	})
	if err != nil {
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	s.hub.add(c)

	// Browsers never send; CloseRead handles control frames and ends the context on disconnect.
	connCtx := conn.CloseRead(ctx)
	c.writePump(connCtx)
	s.hub.remove(c)
}

// fileHandler serves files below fs, injecting the reload client into HTML documents.
type fileHandler struct {
	fs http.FileSystem
}

func (h *fileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := path.Clean("/" + r.URL.Path)

	f, err := h.fs.Open(name)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	info, err := f.Stat()
	if err == nil && info.IsDir() {
		_ = f.Close()
		name = path.Join(name, "index.html")
		f, err = h.fs.Open(name)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		info, err = f.Stat()
	}
	if err != nil || info.IsDir() {
		_ = f.Close()
		http.NotFound(w, r)
		return
	}
	defer f.Close() //nolint:errcheck // Read-only file

	body, err := io.ReadAll(f)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = http.DetectContentType(body)
	}
	if strings.HasPrefix(contentType, "text/html") {
		body = injectClient(body)
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Add("Vary", "Accept-Encoding")

	if compressible(contentType) && acceptsBrotli(r) {
		w.Header().Set("Content-Encoding", "br")
		bw := brotli.NewWriterLevel(w, brotli.DefaultCompression)
		_, _ = bw.Write(body)
		_ = bw.Close()
		return
	}

	http.ServeContent(w, r, name, info.ModTime(), bytes.NewReader(body))
}

// injectClient inserts the reload client before the closing body tag, or appends it.
func injectClient(body []byte) []byte {
	idx := bytes.LastIndex(bytes.ToLower(body), []byte("</body>"))
	if idx < 0 {
		return append(body, clientTag...)
	}
	out := make([]byte, 0, len(body)+len(clientTag))
	out = append(out, body[:idx]...)
	out = append(out, clientTag...)
	return append(out, body[idx:]...)
}

func compressible(contentType string) bool {
	return strings.HasPrefix(contentType, "text/") ||
		strings.Contains(contentType, "javascript") ||
		strings.Contains(contentType, "json") ||
		strings.Contains(contentType, "svg")
}

func acceptsBrotli(r *http.Request) bool {
	for _, enc := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		if strings.TrimSpace(strings.SplitN(enc, ";", 2)[0]) == "br" {
			return true
		}
	}
	return false
}
