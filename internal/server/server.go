package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/gravitas-games/haxagon/internal/board"
	"github.com/gravitas-games/haxagon/internal/config"
	"github.com/gravitas-games/haxagon/internal/network"
	"github.com/gravitas-games/haxagon/internal/scores"
)

// ErrServerFull is returned when max_sessions boards are already running.
var ErrServerFull = errors.New("server full")

const (
	defaultLeaderboardSize = 10
	maxLeaderboardSize     = 100
)

// Server represents the game server
type Server struct {
	config       *config.Config
	engine       *gin.Engine
	upgrader     websocket.Upgrader
	httpSrv      *http.Server
	jwtValidator *JWTValidator
	redis        *redis.Client
	scores       scores.Store

	// Boards in progress
	sessions  map[string]*Session
	sessionMu sync.Mutex
	wg        sync.WaitGroup

	// Connection tracking
	connections map[*Connection]bool
	connMu      sync.RWMutex

	// Shutdown
	ctx    context.Context
	cancel context.CancelFunc
}

// Option configures New.
type Option func(*Server)

// WithScores uses store instead of one built from the redis config.
func WithScores(store scores.Store) Option {
	return func(s *Server) { s.scores = store }
}

// WithValidator uses v instead of fetching a key from jwt.public_key_url.
func WithValidator(v *JWTValidator) Option {
	return func(s *Server) { s.jwtValidator = v }
}

// New creates a new server instance
func New(cfg *config.Config, opts ...Option) (*Server, error) {
	logrus.Info("Initializing server...")

	ctx, cancel := context.WithCancel(context.Background())

	srv := &Server{
		config:      cfg,
		sessions:    make(map[string]*Session),
		connections: make(map[*Connection]bool),
		ctx:         ctx,
		cancel:      cancel,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			Subprotocols:    []string{"access_token"},
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
	for _, opt := range opts {
		opt(srv)
	}

	if cfg.Redis.Address != "" {
		srv.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := srv.redis.Ping(ctx).Err(); err != nil {
			cancel()
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		logrus.WithField("address", cfg.Redis.Address).Info("Connected to Redis")
	}

	if srv.scores == nil {
		if srv.redis != nil {
			srv.scores = scores.NewRedis(srv.redis, cfg.Redis.KeyPrefix)
		} else {
			logrus.Warn("No Redis configured, high scores are kept in memory")
			srv.scores = scores.NewMemory()
		}
	}

	if srv.jwtValidator == nil && cfg.JWT.PublicKeyURL != "" {
		jwtValidator, err := NewJWTValidator(ctx, cfg, srv.redis)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("failed to initialize JWT validator: %w", err)
		}
		srv.jwtValidator = jwtValidator
	}

	srv.engine = srv.routes()

	logrus.Info("Server initialized successfully")
	return srv, nil
}

func (s *Server) routes() *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger())

	engine.GET("/health", s.handleHealth)
	engine.GET("/ws", s.handleWebSocket)
	engine.GET("/scores/:mode", s.handleScores)
	return engine
}

// requestLogger logs each HTTP request through logrus.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logrus.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.FullPath(),
			"status":  c.Writer.Status(),
			"latency": time.Since(start),
			"remote":  c.ClientIP(),
		}).Debug("HTTP request")
	}
}

// Handler exposes the HTTP routes, mainly for tests.
func (s *Server) Handler() http.Handler { return s.engine }

// Start begins listening for connections
func (s *Server) Start(addr string) error {
	s.httpSrv = &http.Server{
		Addr:         addr,
		Handler:      s.engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logrus.Infof("WebSocket endpoint: ws://%s/ws", addr)
	logrus.Infof("Health endpoint: http://%s/health", addr)

	if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown() error {
	logrus.Info("Shutting down server...")

	// stops every session and write pump
	s.cancel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if s.httpSrv != nil {
		if err := s.httpSrv.Shutdown(ctx); err != nil {
			logrus.WithError(err).Warn("HTTP server shutdown error")
		}
	}

	s.connMu.RLock()
	for conn := range s.connections {
		conn.ws.Close()
	}
	s.connMu.RUnlock()

	s.wg.Wait()

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			logrus.WithError(err).Warn("Redis close error")
		}
	}

	logrus.Info("Server shutdown complete")
	return nil
}

// resolveSettings picks the board settings a start message asks for.
// Explicit settings always play unranked.
func (s *Server) resolveSettings(start network.StartPayload) (board.Settings, error) {
	if start.Settings != nil {
		settings := start.Settings.Custom()
		if err := settings.Validate(); err != nil {
			return board.Settings{}, err
		}
		return settings, nil
	}

	mode := start.Mode
	if mode == "" {
		mode = s.config.Session.DefaultMode
	}
	settings, ok := board.PresetFor(mode)
	if !ok {
		return board.Settings{}, fmt.Errorf("unknown mode %q", mode)
	}
	return settings, nil
}

// startSession registers and runs a new board for conn.
func (s *Server) startSession(conn *Connection, settings board.Settings) (*Session, error) {
	s.sessionMu.Lock()
	defer s.sessionMu.Unlock()

	if len(s.sessions) >= s.config.Session.MaxSessions {
		return nil, ErrServerFull
	}

	session, err := NewSession(uuid.NewString(), conn.player, settings, conn, s.scores,
		s.config.Server.TickRate, s.config.Session.SnapshotEvery)
	if err != nil {
		return nil, err
	}
	s.sessions[session.ID] = session

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		session.Run(s.ctx)
		s.endSession(session.ID)
	}()
	return session, nil
}

// endSession frees the registry slot of a stopped session. Its goroutine may
// still be winding down.
func (s *Server) endSession(id string) {
	s.sessionMu.Lock()
	defer s.sessionMu.Unlock()
	delete(s.sessions, id)
}

// SessionCount returns the number of boards in progress.
func (s *Server) SessionCount() int {
	s.sessionMu.Lock()
	defer s.sessionMu.Unlock()
	return len(s.sessions)
}

// handleWebSocket handles WebSocket connection requests
func (s *Server) handleWebSocket(c *gin.Context) {
	player, err := s.authenticate(c.Request)
	if err != nil {
		logrus.WithError(err).WithField("remote", c.ClientIP()).Info("Rejected connection")
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	ws, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	conn := NewConnection(ws, s, player)

	s.connMu.Lock()
	s.connections[conn] = true
	s.connMu.Unlock()

	conn.log.WithFields(logrus.Fields{
		"username":  player.Username,
		"anonymous": player.Anonymous,
		"remote":    c.ClientIP(),
	}).Info("WebSocket connection established")

	conn.Handle()

	s.connMu.Lock()
	delete(s.connections, conn)
	s.connMu.Unlock()

	conn.log.Info("WebSocket connection closed")
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	s.sessionMu.Lock()
	statuses := make([]SessionStatus, 0, len(s.sessions))
	for _, session := range s.sessions {
		statuses = append(statuses, session.Status())
	}
	s.sessionMu.Unlock()

	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"sessions":     statuses,
		"max_sessions": s.config.Session.MaxSessions,
	})
}

// handleScores returns the leaderboard for a ranked mode
func (s *Server) handleScores(c *gin.Context) {
	mode := board.ModeKey(c.Param("mode"))
	if !mode.Ranked() {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown mode"})
		return
	}

	limit := defaultLeaderboardSize
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = min(n, maxLeaderboardSize)
	}

	entries, err := s.scores.Top(c.Request.Context(), mode, limit)
	if err != nil {
		logrus.WithError(err).WithField("mode", mode).Error("Failed to load leaderboard")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load leaderboard"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"mode": mode, "scores": entries})
}
