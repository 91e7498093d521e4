package http

import (
	"context"
	"net/http"
	"strings"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

const actorKey ctxKey = "actor"

// Actor retorna la identidad autenticada del contexto, o "".
func Actor(ctx context.Context) string {
	actor, _ := ctx.Value(actorKey).(string)
	return actor
}

// WithBearerAuth exige un bearer JWT HS256 firmado con secret y deja la
// identidad (claim email, fallback sub) en el contexto. Con secret
// vacío la autenticación queda deshabilitada (dev) y el actor es
// "anonymous".
func WithBearerAuth(secret string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				ctx := context.WithValue(r.Context(), actorKey, "anonymous")
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if !strings.HasPrefix(strings.ToLower(raw), "bearer ") {
				w.Header().Set("WWW-Authenticate", `Bearer realm="certhub"`)
				WriteError(w, http.StatusUnauthorized, "unauthorized", "bearer token requerido")
				return
			}
			raw = strings.TrimSpace(raw[len("bearer "):])

			tok, err := jwtv5.Parse(raw, func(t *jwtv5.Token) (any, error) {
				return []byte(secret), nil
			}, jwtv5.WithValidMethods([]string{"HS256"}))
			if err != nil || !tok.Valid {
				WriteError(w, http.StatusUnauthorized, "unauthorized", "token inválido")
				return
			}

			claims, ok := tok.Claims.(jwtv5.MapClaims)
			if !ok {
				WriteError(w, http.StatusUnauthorized, "unauthorized", "claims inválidas")
				return
			}
			actor, _ := claims["email"].(string)
			if actor == "" {
				actor, _ = claims["sub"].(string)
			}
			if actor == "" {
				WriteError(w, http.StatusUnauthorized, "unauthorized", "token sin identidad")
				return
			}

			ctx := context.WithValue(r.Context(), actorKey, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
