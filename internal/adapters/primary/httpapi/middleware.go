package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Clé privée pour le contexte (évite les collisions)
type contextKey struct{ name string }

var accountCtxKey = &contextKey{"account_id"}

// AuthMiddleware décode le header Authorization et valide le token signé par
// la couche identité (HS256, subject = account id). On ne fait QUE valider :
// l'émission des tokens n'est pas notre affaire.
func AuthMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")

			// 1. Pas de header ? On laisse passer (routes publiques comme Register)
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			// 2. Format "Bearer <token>" obligatoire
			tokenStr, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				http.Error(w, "Invalid token format", http.StatusUnauthorized)
				return
			}

			// 3. Validation de la signature et des claims
			token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(secret), nil
			}, jwt.WithValidMethods([]string{"HS256"}))
			if err != nil || !token.Valid {
				http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
				return
			}

			sub, err := token.Claims.GetSubject()
			if err != nil || sub == "" {
				http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
				return
			}

			// 4. Succès : on injecte l'ID du compte dans le contexte
			ctx := context.WithValue(r.Context(), accountCtxKey, sub)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CallerID récupère l'ID du compte authentifié ("" si requête anonyme).
func CallerID(ctx context.Context) string {
	raw, _ := ctx.Value(accountCtxKey).(string)
	return raw
}
