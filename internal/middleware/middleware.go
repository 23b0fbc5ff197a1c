package middleware

import (
	"fmt"
	"log"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// Candidate permissions
	ReadCandidatePermission     = "read:candidate"
	ReadAllCandidatePermission  = "read:candidate:all"
	UpdateCandidatePermission   = "update:candidate"
	ModerateCandidatePermission = "moderate:candidate"

	// Credit permissions
	GrantCreditsPermission = "grant:credits"

	// Admin permissions (for backward compatibility)
	AdminPermission   = "admin"
	ManagerPermission = "manager"
)

type Claims struct {
	jwt.RegisteredClaims
	UserID      string   `json:"userId"`
	Username    string   `json:"username"`
	Permissions []string `json:"permissions"`
}

// Identity resolves the caller. Behind the gateway the X-User-ID and
// X-User-Permissions headers are already set; standalone deployments send
// a bearer token instead, which is verified here and translated into the
// same headers so handlers read identity one way.
func Identity(jwtSecret string) fiber.Handler {
	return func(c fiber.Ctx) error {
		if c.Get("X-User-ID") != "" {
			return c.Next()
		}

		authHeader := c.Get("Authorization")
		if jwtSecret == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			return c.Next()
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(jwtSecret), nil
		})
		if err != nil || !token.Valid {
			log.Printf("Rejected invalid bearer token from %s: %v", c.IP(), err)
			return c.Next()
		}

		c.Request().Header.Set("X-User-ID", claims.UserID)
		c.Request().Header.Set("X-User-Permissions", strings.Join(claims.Permissions, ","))
		return c.Next()
	}
}

func PermissionRequired(requiredPermission string) fiber.Handler {
	return func(c fiber.Ctx) error {
		if c.Get("X-User-ID") == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"error":   "Authentication required",
			})
		}

		if !HasPermission(c, requiredPermission) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"success": false,
				"error":   "Permission denied",
			})
		}
		return c.Next()
	}
}

func HasPermission(c fiber.Ctx, requiredPermission string) bool {
	userPermissions := c.Get("X-User-Permissions")
	if userPermissions == "" {
		return false
	}

	for _, perm := range strings.Split(userPermissions, ",") {
		if perm == requiredPermission || strings.HasPrefix(perm, AdminPermission) || strings.HasPrefix(perm, ManagerPermission) {
			return true
		}
	}
	return false
}
