// Package server receives interactions over Discord's HTTP interactions
// endpoint instead of the gateway.
package server

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/sipeed/picoslash/pkg/api"
	"github.com/sipeed/picoslash/pkg/config"
	"github.com/sipeed/picoslash/pkg/logger"
	"github.com/sipeed/picoslash/pkg/routing"
)

const (
	defaultHost    = "127.0.0.1"
	defaultPath    = "/interactions"
	maxRequestBody = 1 << 20
)

// Server verifies, acknowledges and dispatches interactions posted by Discord.
type Server struct {
	cfg        config.HTTPConfig
	publicKey  ed25519.PublicKey
	dispatcher *routing.Dispatcher

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
	// ctx is handed to dispatched handlers. Stop does not cancel it.
	ctx context.Context
}

// New creates a server. publicKey is the application's hex encoded Ed25519 key.
// Port 0 listens on an ephemeral port.
func New(cfg config.HTTPConfig, publicKey string, dispatcher *routing.Dispatcher) (*Server, error) {
	key, err := hex.DecodeString(strings.TrimSpace(publicKey))
	if err != nil {
		return nil, fmt.Errorf("failed to decode public key: %w", err)
	}
	if len(key) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("public key must be %d bytes, got %d", ed25519.PublicKeySize, len(key))
	}

	if strings.TrimSpace(cfg.Host) == "" {
		cfg.Host = defaultHost
	}
	if strings.TrimSpace(cfg.Path) == "" {
		cfg.Path = defaultPath
	}

	return &Server{
		cfg:        cfg,
		publicKey:  ed25519.PublicKey(key),
		dispatcher: dispatcher,
		ctx:        context.Background(),
	}, nil
}

// Handler returns the HTTP handler serving the interactions path.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(s.cfg.Path, s.handleInteraction)
	return mux
}

func (s *Server) Start(ctx context.Context) error {
	logger.InfoC("server", "Starting interactions endpoint")

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.mu.Lock()
	s.ctx = ctx
	s.listener = listener
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv := s.server
	s.mu.Unlock()

	go func() {
		if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
			logger.ErrorCF("server", "Interactions server error", map[string]any{
				"error": err.Error(),
			})
		}
	}()

	logger.InfoCF("server", "Interactions endpoint listening", map[string]any{
		"address": listener.Addr().String(),
		"path":    s.cfg.Path,
	})
	return nil
}

// Addr returns the listening address once started.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) Stop(ctx context.Context) error {
	logger.InfoC("server", "Stopping interactions endpoint")

	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.ErrorCF("server", "Interactions server shutdown error", map[string]any{
				"error": err.Error(),
			})
			return err
		}
	}
	return nil
}

func (s *Server) dispatchContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx
}

func (s *Server) handleInteraction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if !discordgo.VerifyInteraction(r, s.publicKey) {
		logger.WarnCF("server", "Rejected interaction with invalid signature", map[string]any{
			"remote": r.RemoteAddr,
		})
		http.Error(w, "invalid request signature", http.StatusUnauthorized)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	var in api.Interaction
	if err := json.Unmarshal(body, &in); err != nil {
		logger.WarnCF("server", "Malformed interaction payload", map[string]any{
			"error": err.Error(),
		})
		http.Error(w, "invalid interaction payload", http.StatusBadRequest)
		return
	}

	switch in.Type {
	case api.InteractionPing:
		logger.DebugC("server", "Answering ping")
		writeJSON(w, api.PongResponse())
	case api.InteractionApplicationCommand:
		writeJSON(w, api.AckResponse())
		s.dispatcher.GoDispatch(s.dispatchContext(), &in)
	default:
		logger.DebugCF("server", "Unsupported interaction type", map[string]any{
			"interaction_id": in.ID,
			"type":           int(in.Type),
		})
		http.Error(w, "unsupported interaction type", http.StatusBadRequest)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.ErrorCF("server", "Failed to write response", map[string]any{
			"error": err.Error(),
		})
	}
}
