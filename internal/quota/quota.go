// Package quota implements §4.J's Quota Gate: a per-user daily byte
// budget enforced against a plan tier, admitted once per file before
// work starts and committed once the transfer completes. The
// authoritative record lives in an external persistent store (out of
// this module's scope, same as internal/chatapi); this package only
// owns the admission/reset/expiry logic and a short-lived read cache in
// front of that store, mirroring original_source/f2lnk/utils/database.py's
// reset-on-access and tier-expiry rules.
package quota

import (
	"context"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/f2lnk/f2lnk-go/internal/logging"
	"github.com/f2lnk/f2lnk-go/internal/xerrors"
)

var logger = logging.ForService("quota")

// Record is the Quota Record spec.md §3 names: tier id, plan expiry,
// daily/lifetime usage, last reset date, and the optional caption
// footer §5.2's /add_footer and /remove_footer mutate.
type Record struct {
	UserID         int64
	Tier           string
	PlanExpiry     *time.Time // nil means no expiry
	DailyUsed      int64
	LastResetDate  time.Time // truncated to a calendar day
	TotalUsed      int64
	FilesProcessed int64
	CaptionFooter  string
}

// Store is the persistent-store contract this package is written
// against. The actual backing database is an external collaborator;
// Store only has to support read-modify-write on a single user's
// Record and a lifetime increment on successful transfer.
type Store interface {
	GetRecord(ctx context.Context, userID int64) (*Record, error)
	SaveRecord(ctx context.Context, rec *Record) error
}

// TierLimits maps a tier id to its daily byte budget.
type TierLimits map[string]int64

// Gate is the admission/commit entry point. One Gate is shared across
// the engine; it is safe for concurrent use by multiple tasks.
type Gate struct {
	store       Store
	limits      TierLimits
	defaultTier string
	isAdmin     func(userID int64) bool
	cache       *cache.Cache
}

// cacheTTL is short on purpose: the cache only exists to avoid hitting
// the persistent store twice for the same user within one burst of
// files (e.g. a reply-scan leech of several attachments), not to serve
// stale quota decisions across a whole session.
const cacheTTL = 5 * time.Second

// NewGate builds a Gate against store, with per-tier daily limits in
// bytes, a default tier name for new/expired/unknown users, and an
// isAdmin predicate (§4.J step 1's bypass).
func NewGate(store Store, limits TierLimits, defaultTier string, isAdmin func(userID int64) bool) *Gate {
	return &Gate{
		store:       store,
		limits:      limits,
		defaultTier: defaultTier,
		isAdmin:     isAdmin,
		cache:       cache.New(cacheTTL, 2*cacheTTL),
	}
}

// GiBToLimits converts a tier->GiB map (as configured in
// conf.Settings.Quota.DailyLimitGiB) into TierLimits' byte form.
func GiBToLimits(gib map[string]float64) TierLimits {
	out := make(TierLimits, len(gib))
	for tier, g := range gib {
		out[tier] = int64(g * 1024 * 1024 * 1024)
	}
	return out
}

// Decision is what Admit returns: whether the file may proceed, and if
// not, a user-facing explanation citing the numbers involved per
// spec.md §6's "Quota — over daily limit. Surfaced with numbers" rule.
type Decision struct {
	Allowed   bool
	Reason    string
	TierLimit int64
	DailyUsed int64
}

// Admit runs §4.J's four-step admission check for one incoming file of
// incomingSize bytes. It does not mutate usage counters; callers that
// get an Allowed decision must call Commit once the transfer actually
// completes.
func (g *Gate) Admit(ctx context.Context, userID int64, incomingSize int64) (Decision, error) {
	if g.isAdmin != nil && g.isAdmin(userID) {
		return Decision{Allowed: true}, nil
	}

	rec, err := g.loadAndNormalize(ctx, userID)
	if err != nil {
		return Decision{}, err
	}

	limit, ok := g.limits[rec.Tier]
	if !ok {
		limit = g.limits[g.defaultTier]
	}

	if rec.DailyUsed+incomingSize > limit {
		return Decision{
			Allowed: false,
			Reason: "daily quota exceeded: " + strconv.FormatInt(rec.DailyUsed, 10) + " of " +
				strconv.FormatInt(limit, 10) + " bytes used today, file is " +
				strconv.FormatInt(incomingSize, 10) + " bytes",
			TierLimit: limit,
			DailyUsed: rec.DailyUsed,
		}, nil
	}

	return Decision{Allowed: true, TierLimit: limit, DailyUsed: rec.DailyUsed}, nil
}

// loadAndNormalize fetches the record (cache first), applies the
// reset-on-access and tier-expiry rules, persists the normalized record
// if either rule fired, and refreshes the cache entry.
func (g *Gate) loadAndNormalize(ctx context.Context, userID int64) (*Record, error) {
	rec, err := g.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	dirty := false
	today := truncateToDay(time.Now())

	if rec.PlanExpiry != nil && today.After(truncateToDay(*rec.PlanExpiry)) {
		logger.Debug("plan expired, reverting to default tier", "user_id", userID, "prior_tier", rec.Tier)
		rec.Tier = g.defaultTier
		rec.PlanExpiry = nil
		dirty = true
	}

	if !rec.LastResetDate.Equal(today) {
		rec.DailyUsed = 0
		rec.LastResetDate = today
		dirty = true
	}

	if dirty {
		if err := g.store.SaveRecord(ctx, rec); err != nil {
			return nil, xerrors.Wrap(err).
				Category(xerrors.CategoryQuota).
				Component("quota").
				Context("user_id", userID).
				Build()
		}
		g.cache.Set(cacheKey(userID), rec, cache.DefaultExpiration)
	}

	return rec, nil
}

// Commit increments daily-used, total-used, and files-processed after a
// successful transfer. At-least-once accounting is acceptable per
// spec.md §9: a small over-count from a retried Commit is preferred to
// losing usage data under-counting would risk.
func (g *Gate) Commit(ctx context.Context, userID int64, transferredBytes int64) error {
	rec, err := g.load(ctx, userID)
	if err != nil {
		return err
	}

	rec.DailyUsed += transferredBytes
	rec.TotalUsed += transferredBytes
	rec.FilesProcessed++

	if err := g.store.SaveRecord(ctx, rec); err != nil {
		return xerrors.Wrap(err).
			Category(xerrors.CategoryQuota).
			Component("quota").
			Context("user_id", userID).
			Build()
	}
	g.cache.Set(cacheKey(userID), rec, cache.DefaultExpiration)
	return nil
}

// SetTier sets a user's plan tier and optional expiry, grounding the
// admin.py set_tier command (§5.3).
func (g *Gate) SetTier(ctx context.Context, userID int64, tier string, expiry *time.Time) error {
	rec, err := g.load(ctx, userID)
	if err != nil {
		return err
	}
	rec.Tier = tier
	rec.PlanExpiry = expiry
	if err := g.store.SaveRecord(ctx, rec); err != nil {
		return xerrors.Wrap(err).Category(xerrors.CategoryQuota).Component("quota").Context("user_id", userID).Build()
	}
	g.cache.Set(cacheKey(userID), rec, cache.DefaultExpiration)
	return nil
}

// SetFooter sets or clears (empty string) a user's caption footer, the
// persisted side of §5's /add_footer and /remove_footer commands.
func (g *Gate) SetFooter(ctx context.Context, userID int64, footer string) error {
	rec, err := g.load(ctx, userID)
	if err != nil {
		return err
	}
	rec.CaptionFooter = footer
	if err := g.store.SaveRecord(ctx, rec); err != nil {
		return xerrors.Wrap(err).Category(xerrors.CategoryQuota).Component("quota").Context("user_id", userID).Build()
	}
	g.cache.Set(cacheKey(userID), rec, cache.DefaultExpiration)
	return nil
}

// Footer returns a user's caption footer, or "" if unset.
func (g *Gate) Footer(ctx context.Context, userID int64) (string, error) {
	rec, err := g.load(ctx, userID)
	if err != nil {
		return "", err
	}
	return rec.CaptionFooter, nil
}

func (g *Gate) load(ctx context.Context, userID int64) (*Record, error) {
	if cached, ok := g.cache.Get(cacheKey(userID)); ok {
		rec := *cached.(*Record)
		return &rec, nil
	}

	rec, err := g.store.GetRecord(ctx, userID)
	if err != nil {
		return nil, xerrors.Wrap(err).
			Category(xerrors.CategoryQuota).
			Component("quota").
			Context("user_id", userID).
			Build()
	}
	if rec == nil {
		rec = &Record{UserID: userID, Tier: g.defaultTier, LastResetDate: truncateToDay(time.Now())}
	}
	g.cache.Set(cacheKey(userID), rec, cache.DefaultExpiration)
	return rec, nil
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func cacheKey(userID int64) string {
	return "user:" + strconv.FormatInt(userID, 10)
}
