package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func doRequest(t *testing.T, mw echo.MiddlewareFunc, authHeader string, h echo.HandlerFunc) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return rec, mw(h)(c)
}

func TestMiddleware_ValidToken(t *testing.T) {
	signed, err := IssueToken(testSecret, "user-1", RoleDoctor)
	if err != nil {
		t.Fatalf("IssueToken() error: %v", err)
	}

	var gotID, gotRole string
	_, err = doRequest(t, Middleware(testSecret), "Bearer "+signed, func(c echo.Context) error {
		gotID = UserIDFromContext(c.Request().Context())
		gotRole = RoleFromContext(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotID != "user-1" {
		t.Errorf("expected user-1 on context, got %q", gotID)
	}
	if gotRole != RoleDoctor {
		t.Errorf("expected doctor role on context, got %q", gotRole)
	}
}

func TestMiddleware_MissingHeader(t *testing.T) {
	_, err := doRequest(t, Middleware(testSecret), "", okHandler)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestMiddleware_BadFormat(t *testing.T) {
	_, err := doRequest(t, Middleware(testSecret), "Basic abc123", okHandler)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestMiddleware_InvalidToken(t *testing.T) {
	_, err := doRequest(t, Middleware(testSecret), "Bearer bad-token", okHandler)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestRequireRole(t *testing.T) {
	signed, err := IssueToken(testSecret, "user-2", RolePatient)
	if err != nil {
		t.Fatalf("IssueToken() error: %v", err)
	}

	chain := func(mw ...echo.MiddlewareFunc) echo.HandlerFunc {
		h := okHandler
		for i := len(mw) - 1; i >= 0; i-- {
			h = mw[i](h)
		}
		return h
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := chain(Middleware(testSecret), RequireRole(RolePatient))(c); err != nil {
		t.Errorf("expected patient role to pass, got %v", err)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	c = e.NewContext(req, httptest.NewRecorder())

	err = chain(Middleware(testSecret), RequireRole(RoleDoctor))(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for patient hitting doctor route, got %v", err)
	}
}

func TestRequireRole_MultipleRoles(t *testing.T) {
	signed, err := IssueToken(testSecret, "user-3", RolePatient)
	if err != nil {
		t.Fatalf("IssueToken() error: %v", err)
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	c := e.NewContext(req, httptest.NewRecorder())

	h := Middleware(testSecret)(RequireRole(RoleDoctor, RolePatient)(okHandler))
	if err := h(c); err != nil {
		t.Errorf("expected either-role route to pass, got %v", err)
	}
}
