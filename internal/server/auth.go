package server

import (
	"context"
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/gravitas-games/haxagon/internal/config"
	"github.com/gravitas-games/haxagon/pkg/models"
)

// ErrUnauthorized is returned when a connection cannot be authenticated.
var ErrUnauthorized = errors.New("unauthorized")

// JWTValidator handles JWT token validation
type JWTValidator struct {
	config    config.JWTConfig
	blacklist string
	publicKey *ecdsa.PublicKey
	keyMu     sync.RWMutex
	redis     *redis.Client
}

// Claims represents JWT token claims from the login server
type Claims struct {
	UserID      int64  `json:"user_id"`
	Email       string `json:"email"`
	Username    string `json:"username"`
	AuthMethod  string `json:"auth_method"`
	Permissions int64  `json:"permissions"`
	Activated   int64  `json:"activated"`
	jwt.RegisteredClaims
}

// NewJWTValidator creates a validator, fetches the public key and keeps it
// fresh until ctx is cancelled. redisClient may be nil, which disables the
// blacklist check.
func NewJWTValidator(ctx context.Context, cfg *config.Config, redisClient *redis.Client) (*JWTValidator, error) {
	validator := newJWTValidator(cfg, redisClient, nil)

	if err := validator.RefreshPublicKey(ctx); err != nil {
		return nil, fmt.Errorf("failed to fetch public key: %w", err)
	}

	go validator.periodicKeyRefresh(ctx)

	logrus.Info("JWT validator initialized")
	return validator, nil
}

func newJWTValidator(cfg *config.Config, redisClient *redis.Client, key *ecdsa.PublicKey) *JWTValidator {
	return &JWTValidator{
		config:    cfg.JWT,
		blacklist: cfg.Redis.BlacklistPrefix,
		publicKey: key,
		redis:     redisClient,
	}
}

// RefreshPublicKey fetches the public key from the login server
func (v *JWTValidator) RefreshPublicKey(ctx context.Context) error {
	logrus.WithField("url", v.config.PublicKeyURL).Info("Fetching public key")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.config.PublicKeyURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build public key request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch public key: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("public key endpoint returned status %d", resp.StatusCode)
	}

	keyData, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read public key: %w", err)
	}

	ecdsaKey, err := parsePublicKey(keyData)
	if err != nil {
		return err
	}

	v.keyMu.Lock()
	v.publicKey = ecdsaKey
	v.keyMu.Unlock()

	logrus.Info("Public key refreshed successfully")
	return nil
}

func parsePublicKey(keyData []byte) (*ecdsa.PublicKey, error) {
	block, _ := pem.Decode(keyData)
	if block == nil {
		return nil, fmt.Errorf("failed to decode PEM block")
	}

	pubKey, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}

	ecdsaKey, ok := pubKey.(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("public key is not ECDSA")
	}
	return ecdsaKey, nil
}

// periodicKeyRefresh refreshes the public key periodically
func (v *JWTValidator) periodicKeyRefresh(ctx context.Context) {
	refreshInterval := time.Duration(v.config.PublicKeyRefreshHrs) * time.Hour

	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := v.RefreshPublicKey(ctx); err != nil {
				logrus.WithError(err).Warn("Failed to refresh public key")
			}
		}
	}
}

// ValidateToken validates a JWT token and returns player information
func (v *JWTValidator) ValidateToken(ctx context.Context, tokenString string) (*models.Player, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		v.keyMu.RLock()
		defer v.keyMu.RUnlock()
		if v.publicKey == nil {
			return nil, errors.New("no public key loaded")
		}
		return v.publicKey, nil
	},
		jwt.WithValidMethods([]string{"ES256", "ES384", "ES512"}),
		jwt.WithIssuer(v.config.Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse token: %w", ErrUnauthorized, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: invalid token claims", ErrUnauthorized)
	}

	player := &models.Player{
		ID:          strconv.FormatInt(claims.UserID, 10),
		Username:    claims.Username,
		Email:       claims.Email,
		Permissions: claims.Permissions,
		Activated:   claims.Activated,
		AuthMethod:  claims.AuthMethod,
	}
	if player.IsBanned() {
		return nil, fmt.Errorf("%w: user is banned", ErrUnauthorized)
	}
	if !player.IsActive() {
		return nil, fmt.Errorf("%w: user not activated", ErrUnauthorized)
	}

	if v.redis != nil {
		blacklistKey := v.blacklist + player.ID
		isBlacklisted, err := v.redis.Exists(ctx, blacklistKey).Result()
		if err != nil {
			// don't fail authentication if Redis is down
			logrus.WithError(err).Warn("Failed to check blacklist")
		} else if isBlacklisted > 0 {
			return nil, fmt.Errorf("%w: token is blacklisted", ErrUnauthorized)
		}
	}

	return player, nil
}

// authenticate resolves the player behind a connection request. Without a
// token the player is anonymous unless tokens are required.
func (s *Server) authenticate(r *http.Request) (*models.Player, error) {
	tokenString := extractTokenFromHeader(r)
	if tokenString == "" || s.jwtValidator == nil {
		if s.config.JWT.Required {
			return nil, fmt.Errorf("%w: missing authentication token", ErrUnauthorized)
		}
		return models.NewAnonymous(uuid.NewString()), nil
	}
	return s.jwtValidator.ValidateToken(r.Context(), tokenString)
}

// extractTokenFromHeader extracts JWT token from WebSocket connection header
func extractTokenFromHeader(r *http.Request) string {
	// Sec-WebSocket-Protocol first, formatted "access_token, <token>"
	if protocols := r.Header.Get("Sec-WebSocket-Protocol"); protocols != "" {
		parts := splitAndTrim(protocols, ",")
		if len(parts) == 2 && parts[0] == "access_token" {
			return parts[1]
		}
	}

	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok && token != "" {
		return token
	}

	// query parameter, less secure but browsers cannot set headers
	return r.URL.Query().Get("token")
}

// splitAndTrim splits a string and trims each part, dropping empty ones
func splitAndTrim(s, sep string) []string {
	var result []string
	for _, part := range strings.Split(s, sep) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
