package httpapi

import (
	"context"
	"net/http"
	"strings"

	"tailscale-dashboard/internal/auth"
)

type ctxKey int

const ctxSubject ctxKey = iota

// withAuth accepts the token from the Authorization header or, for browsers
// opening a websocket, from ?token=.
func withAuth(secret []byte, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr := r.Header.Get("Authorization")
		if strings.HasPrefix(tokenStr, "Bearer ") {
			tokenStr = strings.TrimSpace(strings.TrimPrefix(tokenStr, "Bearer "))
		}
		if tokenStr == "" {
			tokenStr = r.URL.Query().Get("token")
		}
		if tokenStr == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing token"})
			return
		}

		claims, err := auth.Parse(secret, tokenStr)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
			return
		}

		ctx := context.WithValue(r.Context(), ctxSubject, claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func subjectFromCtx(r *http.Request) string {
	if v, ok := r.Context().Value(ctxSubject).(string); ok {
		return v
	}
	return ""
}

func WithCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
