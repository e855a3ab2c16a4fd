// Package middlewares holds the HTTP middlewares specific to the shop.
package middlewares

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type ctxKey string

const (
	sessionKey  ctxKey = "shop-session-id"
	customerKey ctxKey = "shop-customer-id"
	roleKey     ctxKey = "shop-role"

	// SessionCookie carries the anonymous session identifier that keys the
	// cart. It identifies a browser, not a customer.
	SessionCookie = "shop_session"

	// HeaderCustomerID and HeaderRole are filled in by the external identity
	// provider in front of this service.
	HeaderCustomerID = "X-Customer-Id"
	HeaderRole       = "X-Role"
)

// Session assigns a session cookie on first contact and stores the session
// ID, the resolved customer ID and the role in the request context.
func Session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := ""
		if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
			sessionID = c.Value
		}
		if sessionID == "" {
			sessionID = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookie,
				Value:    sessionID,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}

		ctx := context.WithValue(r.Context(), sessionKey, sessionID)
		ctx = context.WithValue(ctx, customerKey, r.Header.Get(HeaderCustomerID))
		ctx = context.WithValue(ctx, roleKey, r.Header.Get(HeaderRole))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SessionID returns the session identifier stored by Session.
func SessionID(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey).(string)
	return id
}

// CustomerID returns the resolved customer identity, or "" for anonymous.
func CustomerID(ctx context.Context) string {
	id, _ := ctx.Value(customerKey).(string)
	return id
}

// Role returns the caller's role header value.
func Role(ctx context.Context) string {
	role, _ := ctx.Value(roleKey).(string)
	return role
}
