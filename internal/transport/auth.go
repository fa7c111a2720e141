package transport

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// CallerClaims carries the authenticated operator identity issued by the
// clinic identity service.
type CallerClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
}

// localsCallerID is the fiber.Ctx Locals key under which the authenticated
// caller id is stored for downstream handlers.
const localsCallerID = "callerID"

// CallerID returns the authenticated caller id set by JWTAuth, or an empty
// string when the request was not authenticated.
func CallerID(c *fiber.Ctx) string {
	id, _ := c.Locals(localsCallerID).(string)
	return id
}

// GenerateJWT signs an operator token. Used by tests and local tooling;
// production tokens come from the identity service.
func GenerateJWT(secret, userID string) (string, error) {
	claims := CallerClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "smartdoc-identity",
		},
		UserID: userID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// JWTAuth verifies the Bearer token on incoming requests and stores the
// caller id in the request locals.
func JWTAuth(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "authorization header is required",
			})
		}

		tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
		if !found {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "bearer token is malformed",
			})
		}

		claims := &CallerClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
			return []byte(secret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid || claims.UserID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "token is invalid",
			})
		}

		c.Locals(localsCallerID, claims.UserID)
		return c.Next()
	}
}
