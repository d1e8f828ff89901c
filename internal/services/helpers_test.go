package services

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// authedRequest attaches the authenticated user id the way the auth
// middleware does
func authedRequest(r *http.Request, userID int) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), "userID", userID))
}

// withURLParam injects a chi route parameter for direct handler calls
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
