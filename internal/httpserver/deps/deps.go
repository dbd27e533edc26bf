package deps

import (
	"time"

	"github.com/haoyun/navtable/internal/fieldmap"
	"github.com/haoyun/navtable/internal/locator"
	"github.com/haoyun/navtable/internal/logger"
	"github.com/haoyun/navtable/internal/review"
	"github.com/haoyun/navtable/internal/session"
	"github.com/haoyun/navtable/internal/store"
)

// Deps is the shared dependency bag handed to every route registrar.
type Deps struct {
	Logger    logger.Logger
	StartTime time.Time
	Version   string
	Commit    string
	BuildDate string
	GoVersion string
	TimeNow   func() time.Time // for testing, defaults to time.Now

	TrustProxy bool // true if running behind a trusted reverse proxy

	// Admin auth
	AdminPassword string
	Sessions      *session.Store
	SessionTTL    time.Duration
	CookieSecure  bool
	LoginBurst    int // rate limit bucket size for login attempts
	LoginPerMin   int // rate limit refill per client IP per minute

	// Table service
	Bitable        store.Client       // raw client, for per-request adapters
	Normalizer     *fieldmap.Normalizer
	Locator        *locator.Locator
	Staging        *store.Records // staging queue adapter, nil when disabled
	Published      *store.Records // default published dataset adapter
	Review         *review.Workflow
	StagingEnabled bool

	GuestListLimit int
	AdminPageSize  int
	FaviconTimeout time.Duration
}
