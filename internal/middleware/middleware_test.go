package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/golang-jwt/jwt/v5"
)

func newGuardedApp(permission string) *fiber.App {
	app := fiber.New()
	app.Get("/guarded", func(c fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}, PermissionRequired(permission))
	return app
}

func TestPermissionRequired(t *testing.T) {
	tests := []struct {
		name        string
		userID      string
		permissions string
		wantStatus  int
	}{
		{"no identity", "", "", fiber.StatusUnauthorized},
		{"identity without permission", "user-1", "read:candidate", fiber.StatusForbidden},
		{"exact permission", "user-1", "moderate:candidate", fiber.StatusOK},
		{"permission among several", "user-1", "read:candidate,moderate:candidate", fiber.StatusOK},
		{"admin prefix passes", "user-1", "admin:all", fiber.StatusOK},
	}

	app := newGuardedApp(ModerateCandidatePermission)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/guarded", nil)
			if tt.userID != "" {
				req.Header.Set("X-User-ID", tt.userID)
			}
			if tt.permissions != "" {
				req.Header.Set("X-User-Permissions", tt.permissions)
			}

			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("Test request failed: %v", err)
			}
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, resp.StatusCode)
			}
		})
	}
}

func TestIdentityFromBearerToken(t *testing.T) {
	secret := "test-secret"

	app := fiber.New()
	app.Use(Identity(secret))
	app.Get("/whoami", func(c fiber.Ctx) error {
		return c.SendString(c.Get("X-User-ID"))
	})

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		UserID:      "user-42",
		Permissions: []string{"read:candidate"},
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+signed)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Test request failed: %v", err)
	}
	body := make([]byte, 64)
	n, _ := resp.Body.Read(body)
	if got := string(body[:n]); got != "user-42" {
		t.Errorf("Expected resolved user ID user-42, got %q", got)
	}
}

func TestIdentityRejectsBadToken(t *testing.T) {
	app := fiber.New()
	app.Use(Identity("test-secret"))
	app.Get("/whoami", func(c fiber.Ctx) error {
		return c.SendString(c.Get("X-User-ID"))
	})

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Test request failed: %v", err)
	}
	body := make([]byte, 64)
	n, _ := resp.Body.Read(body)
	if n != 0 {
		t.Errorf("Expected no identity for a bad token, got %q", string(body[:n]))
	}
}

func TestIdentityPassesGatewayHeadersThrough(t *testing.T) {
	app := fiber.New()
	app.Use(Identity("test-secret"))
	app.Get("/whoami", func(c fiber.Ctx) error {
		return c.SendString(c.Get("X-User-ID"))
	})

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("X-User-ID", "gateway-user")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Test request failed: %v", err)
	}
	body := make([]byte, 64)
	n, _ := resp.Body.Read(body)
	if got := string(body[:n]); got != "gateway-user" {
		t.Errorf("Expected gateway identity preserved, got %q", got)
	}
}
