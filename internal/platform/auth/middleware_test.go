package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

func contextWithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, RoleKey, role)
}

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func signToken(t *testing.T, subject, role string, expiry time.Duration) string {
	t.Helper()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiry)),
		},
		Role: role,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(testSecret)
	if err != nil {
		t.Fatal(err)
	}
	return signed
}

func runRequest(mw echo.MiddlewareFunc, authHeader string) (*httptest.ResponseRecorder, string, string) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var uid, role string
	handler := mw(func(c echo.Context) error {
		uid = UserIDFromContext(c.Request().Context())
		role = RoleFromContext(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec, uid, role
}

func TestJWTMiddlewareValidToken(t *testing.T) {
	mw := JWTMiddleware(JWTConfig{Secret: testSecret})
	token := signToken(t, "acct-1", "doctor", time.Hour)

	rec, uid, role := runRequest(mw, "Bearer "+token)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if uid != "acct-1" {
		t.Errorf("user id = %q, want acct-1", uid)
	}
	if role != "doctor" {
		t.Errorf("role = %q, want doctor", role)
	}
}

func TestJWTMiddlewareMissingHeader(t *testing.T) {
	mw := JWTMiddleware(JWTConfig{Secret: testSecret})
	rec, _, _ := runRequest(mw, "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestJWTMiddlewareExpiredToken(t *testing.T) {
	mw := JWTMiddleware(JWTConfig{Secret: testSecret})
	token := signToken(t, "acct-1", "patient", -time.Hour)

	rec, _, _ := runRequest(mw, "Bearer "+token)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestJWTMiddlewareWrongScheme(t *testing.T) {
	mw := JWTMiddleware(JWTConfig{Secret: testSecret})
	rec, _, _ := runRequest(mw, "Basic abc")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name     string
		role     string
		required []string
		want     int
	}{
		{"matching role", "doctor", []string{"doctor", "nurse"}, http.StatusOK},
		{"admin passes any check", "admin", []string{"patient"}, http.StatusOK},
		{"wrong role", "patient", []string{"doctor"}, http.StatusForbidden},
		{"no role", "", []string{"doctor"}, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			if tt.role != "" {
				ctx := c.Request().Context()
				c.SetRequest(c.Request().WithContext(
					contextWithRole(ctx, tt.role)))
			}

			handler := RequireRole(tt.required...)(func(c echo.Context) error {
				return c.NoContent(http.StatusOK)
			})
			err := handler(c)
			if err != nil {
				e.HTTPErrorHandler(err, c)
			}
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
