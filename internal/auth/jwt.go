package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidAPIKey is returned when a presented API key does not match
var ErrInvalidAPIKey = errors.New("invalid API key")

// Config holds authentication configuration
type Config struct {
	// APIKey enables authentication when set; requests must present it or a token minted from it
	APIKey string `yaml:"api_key" env:"API_KEY"`
	// APIKeyHash is a bcrypt hash of the API key, used instead of APIKey when set
	APIKeyHash string `yaml:"api_key_hash" env:"API_KEY_HASH"`
	// JWTSecret signs access tokens; a random secret is generated when empty
	JWTSecret string        `yaml:"jwt_secret" env:"JWT_SECRET"`
	TokenTTL  time.Duration `yaml:"token_ttl" env:"JWT_TTL" validate:"gt=0"`
	Issuer    string        `yaml:"issuer" env:"JWT_ISSUER"`
}

// DefaultConfig returns default authentication configuration
func DefaultConfig() *Config {
	return &Config{
		TokenTTL: 15 * time.Minute,
		Issuer:   "dockctl",
	}
}

// Enabled returns true if an API key or key hash is configured
func (c *Config) Enabled() bool {
	return c.APIKey != "" || c.APIKeyHash != ""
}

// Claims represents JWT claims; the subject names the client the token was issued to
type Claims struct {
	jwt.RegisteredClaims
}

// Auth handles authentication logic
type Auth struct {
	apiKey     []byte
	apiKeyHash string
	jwtSecret  []byte
	accessTTL  time.Duration
	issuer     string
}

// NewAuth creates a new Auth instance
func NewAuth(cfg *Config) (*Auth, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	secret := []byte(cfg.JWTSecret)
	if len(secret) == 0 {
		generated, err := GenerateSecret()
		if err != nil {
			return nil, err
		}
		secret = []byte(generated)
	}

	return &Auth{
		apiKey:     []byte(cfg.APIKey),
		apiKeyHash: cfg.APIKeyHash,
		jwtSecret:  secret,
		accessTTL:  cfg.TokenTTL,
		issuer:     cfg.Issuer,
	}, nil
}

// Enabled returns true if requests must authenticate. A nil Auth is disabled.
func (a *Auth) Enabled() bool {
	return a != nil && (len(a.apiKey) > 0 || a.apiKeyHash != "")
}

// VerifyAPIKey checks a presented key against the configured key or hash
func (a *Auth) VerifyAPIKey(key string) error {
	if key == "" {
		return ErrInvalidAPIKey
	}

	if a.apiKeyHash != "" {
		if err := CheckKey(key, a.apiKeyHash); err != nil {
			return ErrInvalidAPIKey
		}
		return nil
	}

	if subtle.ConstantTimeCompare([]byte(key), a.apiKey) != 1 {
		return ErrInvalidAPIKey
	}
	return nil
}

// GenerateAccessToken generates a short-lived JWT access token for subject
func (a *Auth) GenerateAccessToken(subject string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(a.accessTTL)

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    a.issuer,
			Subject:   subject,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(a.jwtSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}

	return tokenString, expiresAt, nil
}

// ValidateAccessToken validates and parses a JWT access token
func (a *Auth) ValidateAccessToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Verify signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.jwtSecret, nil
	}, jwt.WithIssuer(a.issuer))

	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}

// AccessTTL returns the access token TTL
func (a *Auth) AccessTTL() time.Duration {
	return a.accessTTL
}

// GenerateSecret returns 32 random bytes encoded as URL-safe base64
func GenerateSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate random secret: %w", err)
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
