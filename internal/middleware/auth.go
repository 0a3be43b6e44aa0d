package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"thread-service/internal/domain"
	"thread-service/internal/response"
)

const identityKey = "identity"

// TokenValidator resolves a raw bearer token into an identity. Both the REST
// middleware and the websocket handshake go through this interface.
type TokenValidator interface {
	Validate(ctx context.Context, token string) (domain.Identity, error)
}

// JWTValidator verifies HMAC-signed tokens locally.
type JWTValidator struct {
	secret []byte
}

// NewJWTValidator creates a validator for locally signed tokens.
func NewJWTValidator(secret string) *JWTValidator {
	return &JWTValidator{secret: []byte(secret)}
}

func (v *JWTValidator) Validate(_ context.Context, tokenString string) (domain.Identity, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return domain.Identity{}, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return domain.Identity{}, fmt.Errorf("invalid token claims")
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return domain.Identity{}, fmt.Errorf("token missing subject: %w", err)
	}
	userID, err := uuid.Parse(sub)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("invalid subject: %w", err)
	}

	role := domain.RoleUser
	if r, ok := claims["role"].(string); ok && r != "" {
		role = domain.Role(r)
	}

	return domain.Identity{UserID: userID, Role: role}, nil
}

// AuthServiceValidator verifies tokens against the auth service, falling back
// to local verification when the auth service is unreachable.
type AuthServiceValidator struct {
	baseURL    string
	httpClient *http.Client
	fallback   *JWTValidator
	logger     *zap.Logger
}

// NewAuthServiceValidator creates a validator backed by the auth service.
func NewAuthServiceValidator(baseURL string, fallback *JWTValidator, logger *zap.Logger) *AuthServiceValidator {
	return &AuthServiceValidator{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		fallback:   fallback,
		logger:     logger,
	}
}

func (v *AuthServiceValidator) Validate(ctx context.Context, token string) (domain.Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"/api/auth/verify", nil)
	if err != nil {
		return domain.Identity{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		v.logger.Warn("auth service unreachable, verifying locally", zap.Error(err))
		return v.fallback.Validate(ctx, token)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Identity{}, fmt.Errorf("token rejected: status %d", resp.StatusCode)
	}

	var body struct {
		Data struct {
			UserID uuid.UUID `json:"userId"`
			Role   string    `json:"role"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.Identity{}, fmt.Errorf("invalid auth response: %w", err)
	}

	role := domain.Role(body.Data.Role)
	if role == "" {
		role = domain.RoleUser
	}
	return domain.Identity{UserID: body.Data.UserID, Role: role}, nil
}

// AuthMiddleware authenticates requests and stores the identity in the
// request context.
func AuthMiddleware(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			response.SendError(c, http.StatusUnauthorized, response.ErrCodeUnauthorized, "missing bearer token")
			c.Abort()
			return
		}

		identity, err := validator.Validate(c.Request.Context(), strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			response.SendError(c, http.StatusUnauthorized, response.ErrCodeUnauthorized, "invalid token")
			c.Abort()
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

// GetIdentity returns the authenticated identity stored by AuthMiddleware.
func GetIdentity(c *gin.Context) (domain.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return domain.Identity{}, false
	}
	identity, ok := v.(domain.Identity)
	return identity, ok
}
