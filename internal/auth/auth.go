// Package auth resolves the bearer token of a request to a user known to
// the identity collaborator. The finance core itself is role-agnostic; it
// only needs a resolved principal to hand to the approval checks.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/buildledger/backend/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// principalKey is the gin context key the middleware stores the resolved
// user under.
const principalKey = "principal"

// principalTTL is how long a resolved principal stays cached.
const principalTTL = 5 * time.Minute

// RDB is the optional redis cache for resolved principals. When it is nil,
// every request resolves the principal from the database.
var RDB *redis.Client

// ConnectRedis sets up the principal cache from REDIS_URL. Not having a
// cache is fine, the middleware falls back to database lookups.
func ConnectRedis() error {
	redisURL, ok := os.LookupEnv("REDIS_URL")
	if !ok {
		return nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return fmt.Errorf("failed to parse REDIS_URL: %w", err)
	}

	RDB = redis.NewClient(opts)
	return nil
}

// key returns the HMAC signing key for session tokens.
func key() []byte {
	if k, ok := os.LookupEnv("SESSION_SECRET"); ok {
		return []byte(k)
	}

	log.Warn().Msg("SESSION_SECRET is not set, using an insecure development key")
	return []byte("buildledger-insecure-dev-key")
}

// NewToken issues a signed session token for the user. Token issuance
// normally happens in the identity service; this is used by its login
// endpoint and by tests.
func NewToken(userID uuid.UUID) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
	})

	return token.SignedString(key())
}

// parseToken validates the token signature and returns the user ID it was
// issued for.
func parseToken(tokenStr string) (uuid.UUID, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return key(), nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, errors.New("invalid or expired token")
	}

	subject, err := token.Claims.GetSubject()
	if err != nil {
		return uuid.Nil, errors.New("invalid token claims")
	}

	userID, err := uuid.Parse(subject)
	if err != nil {
		return uuid.Nil, errors.New("invalid user ID in token")
	}

	return userID, nil
}

// cachedPrincipal is the redis representation of a resolved user.
type cachedPrincipal struct {
	ID   uuid.UUID   `json:"id"`
	Name string      `json:"name"`
	Role models.Role `json:"role"`
}

// resolve loads the user for the ID, going through the redis cache when
// one is configured.
func resolve(ctx context.Context, userID uuid.UUID) (models.User, error) {
	cacheKey := fmt.Sprintf("principal:%s", userID)

	if RDB != nil {
		cached, err := RDB.Get(ctx, cacheKey).Result()
		if err == nil {
			var principal cachedPrincipal
			if json.Unmarshal([]byte(cached), &principal) == nil {
				return models.User{
					DefaultModel: models.DefaultModel{ID: principal.ID},
					Name:         principal.Name,
					Role:         principal.Role,
				}, nil
			}

			log.Warn().Str("user-id", userID.String()).Msg("failed to unmarshal cached principal")
		} else if !errors.Is(err, redis.Nil) {
			log.Error().Err(err).Str("user-id", userID.String()).Msg("redis GET failed")
		}
	}

	var user models.User
	err := models.DB.First(&user, "id = ?", userID).Error
	if err != nil {
		return models.User{}, err
	}

	if RDB != nil {
		payload, err := json.Marshal(cachedPrincipal{ID: user.ID, Name: user.Name, Role: user.Role})
		if err == nil {
			if err := RDB.Set(ctx, cacheKey, payload, principalTTL).Err(); err != nil {
				log.Error().Err(err).Str("user-id", userID.String()).Msg("redis SET failed")
			}
		}
	}

	return user, nil
}

// Middleware authenticates the request. Requests without a valid bearer
// token for an existing user are rejected with 401.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, err := c.Cookie("auth_token")
		if err != nil || tokenStr == "" {
			authHeader := c.GetHeader("Authorization")
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				abort(c, "authorization token not provided")
				return
			}
			tokenStr = parts[1]
		}

		userID, err := parseToken(tokenStr)
		if err != nil {
			abort(c, err.Error())
			return
		}

		user, err := resolve(c.Request.Context(), userID)
		if err != nil {
			abort(c, "the token does not belong to a known user")
			return
		}

		c.Set(principalKey, user)
		c.Next()
	}
}

// Principal returns the authenticated user for the request.
func Principal(c *gin.Context) (models.User, bool) {
	value, ok := c.Get(principalKey)
	if !ok {
		return models.User{}, false
	}

	user, ok := value.(models.User)
	return user, ok
}

func abort(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
}
