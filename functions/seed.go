package functions

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/hrive/hriveauth"
)

// Seeder creates the portal test accounts. *hriveauth.Engine implements it.
type Seeder interface {
	SeedTestUsers(ctx context.Context) (*hriveauth.SeedResult, error)
}

type seedBody struct {
	Created  []string `json:"created"`
	Existing []string `json:"existing"`
}

// SeedTestUsers handles POST and creates one test account per portal role.
// Accounts that already exist are reported, not recreated.
func SeedTestUsers(seeder Seeder, cfg Config) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if preflight(w, r, cfg, http.MethodPost) {
			return
		}
		if cfg.SeedToken != "" {
			got := r.Header.Get("X-Seed-Token")
			if subtle.ConstantTimeCompare([]byte(got), []byte(cfg.SeedToken)) != 1 {
				writeError(w, http.StatusUnauthorized, "Invalid seed token")
				return
			}
		}

		r = requestContext(r)
		res, err := seeder.SeedTestUsers(r.Context())
		if err != nil {
			fail(w, r, cfg, err)
			return
		}

		cfg.logger().InfoContext(r.Context(), "test users seeded",
			slog.Int("created", len(res.Created)),
			slog.Int("existing", len(res.Existing)),
		)
		writeData(w, seedBody{Created: res.Created, Existing: res.Existing})
	})
}
