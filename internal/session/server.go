package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/udisondev/gearcfg/internal/equip"
	"github.com/udisondev/gearcfg/internal/model"
	"github.com/udisondev/gearcfg/internal/storage"
)

const (
	writeWait       = 10 * time.Second
	shutdownTimeout = 5 * time.Second
	maxFrameSize    = 4096
)

// Server exposes the catalog and per-connection equip sessions over HTTP.
//
// Каждое WebSocket-соединение получает собственный Engine и Writer;
// профиль из query (?profile=) выбирает ключ записи в Store.
type Server struct {
	catalog     *model.Catalog
	catalogJSON []byte
	store       *storage.Store
	upgrader    websocket.Upgrader

	// closing выставляется под mu до wg.Wait; после этого новые сессии не принимаются.
	wg       sync.WaitGroup
	listener net.Listener
	closing  bool
	mu       sync.Mutex
}

// NewServer creates a session server over an already validated catalog.
func NewServer(cat *model.Catalog, store *storage.Store) (*Server, error) {
	data, err := json.Marshal(cat)
	if err != nil {
		return nil, fmt.Errorf("encoding catalog: %w", err)
	}

	return &Server{
		catalog:     cat,
		catalogJSON: data,
		store:       store,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}, nil
}

// Routes returns the HTTP handler with all endpoints.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /catalog", s.handleCatalog)
	mux.HandleFunc("GET /ws", s.handleWS)
	return mux
}

// Addr возвращает адрес, на котором слушает сервер.
// Возвращает nil если сервер ещё не запущен.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Run listens on addr and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve принимает готовый listener. Используется для тестирования с произвольным listener.
// Возвращается после того, как все сессии сохранили своё последнее состояние.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	srv := &http.Server{
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("equip server started", "address", ln.Addr())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		s.stopSessions()
		s.wg.Wait()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving http: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("http shutdown", "err", err)
	}
	// hijacked websocket connections are not tracked by http.Server
	s.stopSessions()
	s.wg.Wait()
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(s.catalogJSON)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	profile := r.URL.Query().Get("profile")

	if !s.beginSession() {
		http.Error(w, "server is shutting down", http.StatusServiceUnavailable)
		return
	}
	defer s.wg.Done()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}
	s.serveConn(r.Context(), conn, profile)
}

// beginSession регистрирует сессию в wg. false — сервер уже останавливается.
func (s *Server) beginSession() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return false
	}
	s.wg.Add(1)
	return true
}

func (s *Server) stopSessions() {
	s.mu.Lock()
	s.closing = true
	s.mu.Unlock()
}

func (s *Server) serveConn(ctx context.Context, conn *websocket.Conn, profile string) {
	ctx, cancel := context.WithCancel(ctx)
	defer conn.Close()

	writer := storage.NewWriter(s.store.ForProfile(profile))
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		_ = writer.Run(ctx)
	}()
	defer func() {
		cancel()
		<-writerDone
	}()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	engine := equip.New(writer)
	engine.Attach(ctx, s.catalog)
	handler := NewHandler(engine)

	slog.Info("session opened", "remote", conn.RemoteAddr(), "profile", profile)
	defer slog.Info("session closed", "remote", conn.RemoteAddr(), "profile", profile)

	if err := writeFrame(conn, handler.Snapshot()); err != nil {
		return
	}

	conn.SetReadLimit(maxFrameSize)
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) && ctx.Err() == nil {
				slog.Debug("session read failed", "remote", conn.RemoteAddr(), "err", err)
			}
			return
		}

		var cmd Command
		if err := json.Unmarshal(payload, &cmd); err != nil {
			resp := handler.Snapshot()
			resp.OK = false
			resp.Op = ""
			resp.Error = &ErrorBody{Code: CodeBadRequest, Message: err.Error()}
			if err := writeFrame(conn, resp); err != nil {
				return
			}
			continue
		}

		if err := writeFrame(conn, handler.Handle(ctx, cmd)); err != nil {
			slog.Debug("session write failed", "remote", conn.RemoteAddr(), "err", err)
			return
		}
	}
}

func writeFrame(conn *websocket.Conn, resp Response) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(resp)
}
