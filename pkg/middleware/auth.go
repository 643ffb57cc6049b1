package middleware

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"asenso-booking/pkg/config"
	"asenso-booking/pkg/errutil"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	workerIDKey = "worker_id"
	roleKey     = "role"
)

type Role string

const (
	RoleWorker Role = "worker"
	RoleAdmin  Role = "admin"
)

// Principal is the caller a bearer token was issued for.
type Principal struct {
	WorkerID int64
	Role     Role
}

func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }

// Authenticator resolves a bearer token to the principal it was issued for.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (Principal, error)
}

type Claims struct {
	jwt.RegisteredClaims
	Role Role `json:"role,omitempty"`
}

type JWTAuthenticator struct {
	secret []byte
	issuer string
}

func NewJWTAuthenticator(cfg *config.Config) Authenticator {
	return &JWTAuthenticator{
		secret: []byte(cfg.Auth.JWTSecret),
		issuer: cfg.Auth.Issuer,
	}
}

// Issue signs an HS256 worker token for workerID.
func (a *JWTAuthenticator) Issue(workerID int64, ttl time.Duration) (string, error) {
	return a.IssueRole(workerID, RoleWorker, ttl)
}

func (a *JWTAuthenticator) IssueRole(subject int64, role Role, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(subject, 10),
			Issuer:    a.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role: role,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

func (a *JWTAuthenticator) Authenticate(_ context.Context, tokenStr string) (Principal, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, opts...)
	if err != nil {
		return Principal{}, errutil.Unauthorized("invalid token", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Principal{}, errutil.Unauthorized("invalid token", nil)
	}

	workerID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return Principal{}, errutil.Unauthorized("invalid token subject", err)
	}

	// Tokens issued before roles existed carry none and act as workers.
	role := claims.Role
	if role == "" {
		role = RoleWorker
	}
	if role != RoleWorker && role != RoleAdmin {
		return Principal{}, errutil.Unauthorized("invalid token role", nil)
	}

	return Principal{WorkerID: workerID, Role: role}, nil
}

// Auth rejects requests without a valid bearer token and stores the worker id
// and role on the gin context.
func Auth(a Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenStr, found := strings.CutPrefix(header, "Bearer ")
		if !found || tokenStr == "" {
			_ = c.Error(errutil.Unauthorized("missing bearer token", nil))
			c.Abort()
			return
		}

		p, err := a.Authenticate(c.Request.Context(), tokenStr)
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}

		c.Set(workerIDKey, p.WorkerID)
		c.Set(roleKey, p.Role)
		c.Next()
	}
}

// RequireAdmin must run after Auth. Non-admin callers get 403.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := c.Get(roleKey)
		if role != RoleAdmin {
			_ = c.Error(errutil.Forbidden("admin role required", nil))
			c.Abort()
			return
		}
		c.Next()
	}
}

func WorkerID(c *gin.Context) (int64, error) {
	v, ok := c.Get(workerIDKey)
	if !ok {
		return 0, errutil.Unauthorized("unauthenticated", errors.New("no worker on request"))
	}
	return v.(int64), nil
}
