// Package server exposes the tender pipeline over a websocket.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/xhad/tenders/pkg/logger"
	"github.com/xhad/tenders/pkg/pipeline"
	"github.com/xhad/tenders/pkg/store"
)

// Message types exchanged over /ws.
const (
	TypeProcess = "process"
	TypeSearch  = "search"
	TypeStatus  = "status"
	TypeResult  = "result"
	TypeResults = "results"
	TypeError   = "error"
)

type Message struct {
	Type    string      `json:"type"`
	Content string      `json:"content"`
	Data    interface{} `json:"data,omitempty"`
}

// Processor runs one document through the pipeline.
type Processor interface {
	Process(ctx context.Context, path string) (pipeline.Result, error)
}

// Searcher finds stored records similar to a query text.
type Searcher interface {
	Similar(ctx context.Context, text string, limit int) ([]store.StoredRecord, error)
}

type Config struct {
	Processor       Processor
	Searcher        Searcher // optional, enables "search" messages
	Logger          *zap.Logger
	Timeout         time.Duration // per request, default 5m
	AllowLocalFiles bool          // accept filesystem paths, not only URLs
}

type WSServer struct {
	config   Config
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

func NewWSServer(config Config) (*WSServer, error) {
	if config.Processor == nil {
		return nil, errors.New("server: processor is required")
	}
	if config.Timeout == 0 {
		config.Timeout = 5 * time.Minute
	}

	return &WSServer{
		config: config,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Be careful with this in production
			},
		},
		logger: logger.OrNop(config.Logger),
	}, nil
}

// Handler serves /ws and /health.
func (s *WSServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	return mux
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *WSServer) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting websocket server", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// conn serializes writes; gorilla connections allow one concurrent writer.
type conn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

func (c *conn) send(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteJSON(msg)
}

func (s *WSServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	c := &conn{ws: ws}

	ctx, cancel := context.WithCancel(r.Context())
	var wg sync.WaitGroup
	defer func() {
		cancel()
		wg.Wait()
		ws.Close()
	}()

	for {
		_, message, err := ws.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("websocket read ended", zap.Error(err))
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(message, &msg); err != nil {
			s.sendMessage(c, TypeError, fmt.Sprintf("invalid message: %v", err), nil)
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			s.handleMessage(ctx, c, msg)
		}()
	}
}

func (s *WSServer) handleMessage(ctx context.Context, c *conn, msg Message) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	content := strings.TrimSpace(msg.Content)
	if content == "" {
		s.sendMessage(c, TypeError, "empty content", nil)
		return
	}

	switch msg.Type {
	case TypeProcess:
		s.handleProcess(ctx, c, content)
	case TypeSearch:
		s.handleSearch(ctx, c, content)
	default:
		s.sendMessage(c, TypeError, fmt.Sprintf("unknown message type %q", msg.Type), nil)
	}
}

func (s *WSServer) handleProcess(ctx context.Context, c *conn, path string) {
	if !s.config.AllowLocalFiles && !isURL(path) {
		s.sendMessage(c, TypeError, fmt.Sprintf("only http(s) URLs are accepted: %s", path), nil)
		return
	}

	s.sendMessage(c, TypeStatus, fmt.Sprintf("Processing %s", path), nil)

	res, err := s.config.Processor.Process(ctx, path)
	if err != nil {
		s.sendMessage(c, TypeError, err.Error(), nil)
		return
	}

	s.sendMessage(c, TypeResult,
		fmt.Sprintf("Extracted %d of %d fields from %s", res.Found(), len(res.Outcomes), path),
		res.Record)
}

func (s *WSServer) handleSearch(ctx context.Context, c *conn, query string) {
	if s.config.Searcher == nil {
		s.sendMessage(c, TypeError, "search is not enabled", nil)
		return
	}

	records, err := s.config.Searcher.Similar(ctx, query, 0)
	if err != nil {
		s.sendMessage(c, TypeError, fmt.Sprintf("search failed: %v", err), nil)
		return
	}
	s.sendMessage(c, TypeResults, fmt.Sprintf("Found %d similar tenders", len(records)), records)
}

func (s *WSServer) sendMessage(c *conn, msgType, content string, data interface{}) {
	msg := Message{
		Type:    msgType,
		Content: content,
		Data:    data,
	}
	if err := c.send(msg); err != nil {
		s.logger.Warn("failed to send message", zap.String("type", msgType), zap.Error(err))
	}
}

func isURL(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
