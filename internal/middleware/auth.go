package middleware

import (
	"context"
	"fmt"
	"strings"
	"time"

	"exon/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// TokenIssuer is the JWT iss claim for sessions issued by this service.
	TokenIssuer = "exon-api"
	// TokenAudience is the JWT aud claim for the web client.
	TokenAudience = "exon-client"
	// SessionTTL is the lifetime of a wallet-connect session token.
	SessionTTL = 7 * 24 * time.Hour
	// wsTicketTTL is the lifetime of a single-use websocket ticket.
	wsTicketTTL = 30 * time.Second
)

// IssueSessionToken creates a signed JWT for the given user ID.
func IssueSessionToken(secret, userID string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": userID,
		"iss": TokenIssuer,
		"aud": TokenAudience,
		"iat": now.Unix(),
		"exp": now.Add(SessionTTL).Unix(),
		"jti": uuid.NewString(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// IssueWSTicket stores a single-use websocket ticket mapped to the user ID.
func IssueWSTicket(ctx context.Context, rdb *redis.Client, userID string) (string, error) {
	if rdb == nil {
		return "", fmt.Errorf("redis unavailable")
	}
	ticket := uuid.NewString()
	key := "ws_ticket:" + ticket
	if err := rdb.Set(ctx, key, userID, wsTicketTTL).Err(); err != nil {
		return "", err
	}
	return ticket, nil
}

// AuthRequired returns middleware that authenticates requests.
//
// WebSocket paths authenticate with a single-use Redis ticket (browsers cannot
// set Authorization headers on websocket upgrades); everything else uses a
// Bearer JWT issued at wallet connect. On success c.Locals("userID") holds the
// authenticated user's ID.
func AuthRequired(secret string, rdb *redis.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()
		isWSPath := strings.HasPrefix(path, "/api/ws")

		// 1. Try WebSocket ticket first (short-lived, single-use)
		ticket := c.Query("ticket")
		if ticket != "" && rdb != nil {
			key := "ws_ticket:" + ticket
			userID, err := rdb.Get(c.Context(), key).Result()
			if err == nil && userID != "" {
				// Delete ticket immediately (single-use)
				rdb.Del(c.Context(), key)

				c.Locals("userID", userID)
				ctx := context.WithValue(c.UserContext(), UserIDKey, userID)
				c.SetUserContext(ctx)
				return c.Next()
			}
			if isWSPath {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Invalid or expired WebSocket ticket"))
			}
		}

		// 2. Fall back to JWT Bearer token
		authHeader := c.Get("Authorization")
		tokenString := ""
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}

		if tokenString == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid or expired token"))
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid token claims"))
		}

		if issuer, issuerOk := claims["iss"].(string); !issuerOk || issuer != TokenIssuer {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid token issuer"))
		}
		if audience, audienceOk := claims["aud"].(string); !audienceOk || audience != TokenAudience {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid token audience"))
		}

		sub, ok := claims["sub"].(string)
		if !ok || sub == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid subject claim"))
		}

		// Check JTI for revocation
		if jti, exists := claims["jti"].(string); exists && jti != "" && rdb != nil {
			isBlacklisted, err := rdb.Exists(c.Context(), "blacklist:"+jti).Result()
			if err == nil && isBlacklisted > 0 {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Token has been revoked"))
			}
		}

		c.Locals("userID", sub)
		ctx := context.WithValue(c.UserContext(), UserIDKey, sub)
		c.SetUserContext(ctx)

		return c.Next()
	}
}
