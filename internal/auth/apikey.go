package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nikhilbhutani/pdfnarrator/internal/models"
)

type APIKeyMiddleware struct {
	db         *pgxpool.Pool
	headerName string
}

func NewAPIKeyMiddleware(db *pgxpool.Pool, headerName string) *APIKeyMiddleware {
	return &APIKeyMiddleware{db: db, headerName: headerName}
}

// Authenticate checks the API key header when present; requests without the
// header fall through to JWT auth.
func (m *APIKeyMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(m.headerName)
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}

		hash := HashAPIKey(key)

		var ak models.APIKey
		err := m.db.QueryRow(r.Context(),
			`SELECT id, key_hash, name, expires_at, created_at
			 FROM api_keys WHERE key_hash = $1`, hash,
		).Scan(&ak.ID, &ak.KeyHash, &ak.Name, &ak.ExpiresAt, &ak.CreatedAt)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid API key")
			return
		}

		if ak.ExpiresAt != nil && ak.ExpiresAt.Before(time.Now()) {
			writeError(w, http.StatusUnauthorized, "API key expired")
			return
		}

		if subtle.ConstantTimeCompare([]byte(ak.KeyHash), []byte(hash)) != 1 {
			writeError(w, http.StatusUnauthorized, "invalid API key")
			return
		}

		go func() {
			m.db.Exec(context.Background(), "UPDATE api_keys SET last_used_at = $1 WHERE id = $2", time.Now(), ak.ID)
		}()

		ctx := context.WithValue(r.Context(), apiKeyKey, &ak)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

const apiKeyKey ctxKey = "api_key"

func APIKeyFromContext(ctx context.Context) *models.APIKey {
	ak, _ := ctx.Value(apiKeyKey).(*models.APIKey)
	return ak
}

func HashAPIKey(key string) string {
	h := sha256.Sum256([]byte(key))
	return hex.EncodeToString(h[:])
}

func GenerateAPIKeyPrefix() string {
	return fmt.Sprintf("pdn_%d", time.Now().UnixNano())
}
