package middleware

import (
	"net/http"
	"strings"
)

// corsAllowedMethods と corsAllowedHeaders は/api/authのエンドポイントが受け付けるもの。
const (
	corsAllowedMethods = "GET, POST, OPTIONS"
	corsAllowedHeaders = "Content-Type, " + RequestIDHeader
)

// NewCORSMiddleware はカンマ区切りのオリジン一覧に対するCORSミドルウェアを返す。
// セッションCookieを送れるようにcredentialsを許可するので、ワイルドカードは使わず
// 一覧に一致したOriginだけをAccess-Control-Allow-Originに返す。
// プリフライト（OPTIONS）は一致の有無にかかわらず204で終える。
func NewCORSMiddleware(allowedOrigins string) func(next http.Handler) http.Handler {
	allowed := parseOrigins(allowedOrigins)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Add("Vary", "Origin")

			origin := r.Header.Get("Origin")
			if _, ok := allowed[origin]; ok && origin != "" {
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Credentials", "true")
				h.Set("Access-Control-Expose-Headers", RequestIDHeader)

				if r.Method == http.MethodOptions {
					h.Set("Access-Control-Allow-Methods", corsAllowedMethods)
					h.Set("Access-Control-Allow-Headers", corsAllowedHeaders)
					h.Set("Access-Control-Max-Age", "86400")
				}
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func parseOrigins(list string) map[string]struct{} {
	origins := make(map[string]struct{})
	for _, o := range strings.Split(list, ",") {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o != "" && o != "*" {
			origins[o] = struct{}{}
		}
	}
	return origins
}
