package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi/v5"

	"github.com/crucial707/remote-inspect/internal/middleware"
	"github.com/crucial707/remote-inspect/internal/models"
)

// requestWithChiURLParams builds a JSON request routed through withRoute.
func requestWithChiURLParams(method, path string, body []byte, params map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	return withRoute(req, params)
}

// withRoute attaches chi URL params and user 1 (admin) to req.
func withRoute(req *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	return req.WithContext(withUser(ctx, 1, models.RoleAdmin))
}

// as replaces the caller on req.
func as(req *http.Request, id int, role string) *http.Request {
	return req.WithContext(withUser(req.Context(), id, role))
}

func withUser(ctx context.Context, id int, role string) context.Context {
	ctx = context.WithValue(ctx, middleware.UserIDKey, id)
	ctx = context.WithValue(ctx, middleware.UsernameKey, "tester")
	return context.WithValue(ctx, middleware.RoleKey, role)
}

// recordingAuditor captures audit entries.
type recordingAuditor struct {
	entries []string
}

func (a *recordingAuditor) Log(_ context.Context, userID int, action, resourceType string, resourceID int, details string) error {
	a.entries = append(a.entries, action+" "+resourceType)
	return nil
}
