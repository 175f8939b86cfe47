// Package iamclient implementa el cliente autenticado hacia el backend IAM:
// verificación de la sesión del operador y emisión de requests con credenciales.
package iamclient

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

var (
	ErrNoSession      = errors.New("iamclient: no session token")
	ErrInvalidSession = errors.New("iamclient: invalid session")
	ErrSessionExpired = errors.New("iamclient: session expired")
)

// Session es una sesión de operador ya verificada.
type Session struct {
	Token     string
	Subject   string
	Claims    map[string]any
	ExpiresAt time.Time // zero si el token no declara exp
}

// VerifierConfig configura la verificación de tokens de sesión.
type VerifierConfig struct {
	// Secret HMAC (HS256). Vacío = modo dev: no se verifica firma.
	Secret string
	// Issuer esperado (claim iss). Vacío = no se chequea.
	Issuer string
	// CacheTTL de sesiones verificadas. 0 deshabilita el cache.
	CacheTTL time.Duration
	// Leeway para exp/nbf.
	Leeway time.Duration
}

// Verifier valida tokens de sesión y cachea el resultado por hash del token.
type Verifier struct {
	secret []byte
	issuer string
	ttl    time.Duration
	leeway time.Duration

	cache *gocache.Cache
	sf    singleflight.Group
	now   func() time.Time

	// verifications cuenta verificaciones reales (sin cache); usado por tests.
	verifications atomic.Int64
}

// NewVerifier crea un Verifier.
func NewVerifier(cfg VerifierConfig) *Verifier {
	leeway := cfg.Leeway
	if leeway == 0 {
		leeway = 30 * time.Second
	}
	v := &Verifier{
		secret: []byte(cfg.Secret),
		issuer: strings.TrimSpace(cfg.Issuer),
		ttl:    cfg.CacheTTL,
		leeway: leeway,
		now:    time.Now,
	}
	if cfg.CacheTTL > 0 {
		v.cache = gocache.New(cfg.CacheTTL, 2*cfg.CacheTTL)
	}
	return v
}

func cacheKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Verify valida el token y devuelve la sesión. Verificaciones concurrentes del
// mismo token se colapsan en una sola.
func (v *Verifier) Verify(ctx context.Context, token string) (*Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrNoSession
	}
	key := cacheKey(token)

	if v.cache != nil {
		if cached, ok := v.cache.Get(key); ok {
			s := cached.(*Session)
			if s.ExpiresAt.IsZero() || v.now().Before(s.ExpiresAt) {
				return s, nil
			}
			v.cache.Delete(key)
		}
	}

	res, err, _ := v.sf.Do(key, func() (any, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s, err := v.parse(token)
		if err != nil {
			return nil, err
		}
		v.store(key, s)
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return res.(*Session), nil
}

func (v *Verifier) store(key string, s *Session) {
	if v.cache == nil {
		return
	}
	ttl := v.ttl
	if !s.ExpiresAt.IsZero() {
		if left := s.ExpiresAt.Sub(v.now()); left < ttl {
			ttl = left
		}
	}
	if ttl > 0 {
		v.cache.Set(key, s, ttl)
	}
}

func (v *Verifier) parse(token string) (*Session, error) {
	v.verifications.Add(1)

	claims := jwtv5.MapClaims{}
	opts := []jwtv5.ParserOption{
		jwtv5.WithLeeway(v.leeway),
		jwtv5.WithTimeFunc(v.now),
	}
	if v.issuer != "" {
		opts = append(opts, jwtv5.WithIssuer(v.issuer))
	}

	if len(v.secret) == 0 {
		// Modo dev: tokens opacos se aceptan tal cual; JWTs se parsean sin verificar firma
		// pero sí se respeta exp.
		parser := jwtv5.NewParser(opts...)
		if _, _, err := parser.ParseUnverified(token, claims); err != nil {
			return &Session{Token: token}, nil
		}
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			if v.now().After(exp.Time.Add(v.leeway)) {
				return nil, ErrSessionExpired
			}
		}
		return toSession(token, claims), nil
	}

	opts = append(opts, jwtv5.WithValidMethods([]string{"HS256", "HS384", "HS512"}))
	parser := jwtv5.NewParser(opts...)
	_, err := parser.ParseWithClaims(token, claims, func(t *jwtv5.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwtv5.ErrTokenExpired) {
			return nil, ErrSessionExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	return toSession(token, claims), nil
}

func toSession(token string, claims jwtv5.MapClaims) *Session {
	s := &Session{Token: token, Claims: make(map[string]any, len(claims))}
	for k, val := range claims {
		s.Claims[k] = val
	}
	if sub, err := claims.GetSubject(); err == nil {
		s.Subject = sub
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		s.ExpiresAt = exp.Time
	}
	return s
}
