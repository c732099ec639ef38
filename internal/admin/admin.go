// Package admin implements §5.3's owner-only surface: authorize, ban,
// set_tier, broadcast, users, userinfo, maintenance, and speedtest,
// grounded on original_source/f2lnk/bot/plugins/admin.py. Every
// operation here is gated by an IsOwner(userID) check the caller (the
// command dispatcher in internal/engine) is expected to have already
// performed; this package does not re-check ownership itself, the same
// way internal/dialog trusts its caller to have already resolved which
// task a prompt belongs to.
package admin

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/dustin/go-humanize"

	"github.com/f2lnk/f2lnk-go/internal/chatapi"
	"github.com/f2lnk/f2lnk-go/internal/logging"
	"github.com/f2lnk/f2lnk-go/internal/quota"
	"github.com/f2lnk/f2lnk-go/internal/xerrors"
)

var logger = logging.ForService("admin")

// UserSummary is what Store.GetUserInfo returns for /userinfo, mirroring
// admin.py's get_user_info field list (database.py's user document plus
// the tier fields feature 1 added).
type UserSummary struct {
	UserID         int64
	JoinDate       time.Time
	LastActiveDate time.Time
	FilesProcessed int64
	TotalDataUsed  int64
	DailyDataUsed  int64
	LastResetDate  time.Time
	Tier           string
	PlanExpiry     *time.Time
}

// Store is the persistent-store contract the admin surface needs beyond
// quota.Store's per-user record: user enumeration, ban list, and the
// authorized-id allowlist, mirroring database.py's users/bannedList/
// auth_users collections.
type Store interface {
	UserInfo(ctx context.Context, userID int64) (*UserSummary, error)
	TotalUsers(ctx context.Context) (int, error)
	AllUserIDs(ctx context.Context) ([]int64, error)

	Ban(ctx context.Context, userID int64) (banned bool, err error)  // false if already banned
	Unban(ctx context.Context, userID int64) (found bool, err error) // false if not banned
	IsBanned(ctx context.Context, userID int64) (bool, error)

	Authorize(ctx context.Context, id int64) (added bool, err error)   // false if already authorized
	Unauthorize(ctx context.Context, id int64) (found bool, err error) // false if not authorized
}

// Admin wires the owner command surface over Store, quota.Gate, and the
// chat transport used for broadcast and user notifications.
type Admin struct {
	store     Store
	gate      *quota.Gate
	transport chatapi.Transport
}

// New builds an Admin.
func New(store Store, gate *quota.Gate, transport chatapi.Transport) *Admin {
	return &Admin{store: store, gate: gate, transport: transport}
}

// Authorize adds id (a user, channel, or group id) to the authorized
// allowlist, refusing to authorize a configured owner the way admin.py's
// authorize_user does.
func (a *Admin) Authorize(ctx context.Context, id int64, isOwner bool) (string, error) {
	if isOwner {
		return "", xerrors.Newf("cannot authorize an owner id").Category(xerrors.CategoryValidation).Component("admin").Build()
	}
	added, err := a.store.Authorize(ctx, id)
	if err != nil {
		return "", wrapStore(err, "authorize", id)
	}
	if !added {
		return fmt.Sprintf("ID `%d` is already authorized.", id), nil
	}
	return fmt.Sprintf("ID `%d` has been successfully authorized.", id), nil
}

// Unauthorize removes id from the allowlist.
func (a *Admin) Unauthorize(ctx context.Context, id int64) (string, error) {
	found, err := a.store.Unauthorize(ctx, id)
	if err != nil {
		return "", wrapStore(err, "unauthorize", id)
	}
	if !found {
		return fmt.Sprintf("ID `%d` was not found in the authorized list.", id), nil
	}
	return fmt.Sprintf("ID `%d` has been successfully unauthorized.", id), nil
}

// Ban bans a user, the `ban` command spec.md §6 lists, grounded on
// database.py's bannedList collection.
func (a *Admin) Ban(ctx context.Context, userID int64) (string, error) {
	banned, err := a.store.Ban(ctx, userID)
	if err != nil {
		return "", wrapStore(err, "ban", userID)
	}
	if !banned {
		return fmt.Sprintf("User `%d` is already banned.", userID), nil
	}
	return fmt.Sprintf("User `%d` has been banned.", userID), nil
}

// Unban reverses Ban.
func (a *Admin) Unban(ctx context.Context, userID int64) (string, error) {
	found, err := a.store.Unban(ctx, userID)
	if err != nil {
		return "", wrapStore(err, "unban", userID)
	}
	if !found {
		return fmt.Sprintf("User `%d` was not banned.", userID), nil
	}
	return fmt.Sprintf("User `%d` has been unbanned.", userID), nil
}

// SetTier runs admin.py's set_user_tier: applies the new tier/expiry to
// the Quota Record and, if a transport is wired, notifies the user.
func (a *Admin) SetTier(ctx context.Context, userID int64, tier string, days int, limit int64) (ownerMsg string, err error) {
	expiry := time.Now().AddDate(0, 0, days)
	if err := a.gate.SetTier(ctx, userID, tier, &expiry); err != nil {
		return "", err
	}

	ownerMsg = fmt.Sprintf(
		"Successfully set plan for user `%d`.\nPlan: %s\nExpires on: %s\nDaily Limit: %s",
		userID, strings.ToUpper(tier), expiry.Format("2006-01-02"), humanize.Bytes(uint64(limit)),
	)

	if a.transport != nil {
		notice := fmt.Sprintf(
			"Your plan has been updated!\n\nAn admin has set your account to the %s plan.\nDaily bandwidth limit: %s\nValid until: %s",
			strings.ToUpper(tier), humanize.Bytes(uint64(limit)), expiry.Format("2006-01-02"),
		)
		if _, sendErr := a.transport.SendText(ctx, userID, notice); sendErr != nil {
			logger.Warn("admin: failed to notify user of tier change", "user_id", userID, "error", sendErr)
			ownerMsg += fmt.Sprintf("\n\nCouldn't notify user: %s", sendErr)
		}
	}
	return ownerMsg, nil
}

// Users reports the total user count, the `/users` command.
func (a *Admin) Users(ctx context.Context) (string, error) {
	count, err := a.store.TotalUsers(ctx)
	if err != nil {
		return "", wrapStore(err, "users", 0)
	}
	return fmt.Sprintf("Total Users in DB: %d", count), nil
}

// UserInfo renders the /userinfo report admin.py produces.
func (a *Admin) UserInfo(ctx context.Context, userID int64) (string, error) {
	info, err := a.store.UserInfo(ctx, userID)
	if err != nil {
		return "", wrapStore(err, "userinfo", userID)
	}
	if info == nil {
		return fmt.Sprintf("No user found with the ID: `%d`", userID), nil
	}

	expiry := "N/A"
	if info.PlanExpiry != nil {
		expiry = info.PlanExpiry.Format("2006-01-02")
	}

	return fmt.Sprintf(
		"User Info for: `%d`\n\nJoined: %s\nLast Active: %s\nFiles Processed: %d\nTotal Data Used: %s\nToday's Usage: %s (Resets on: %s)\nCurrent Plan: %s\nPlan Expiry: %s",
		userID,
		info.JoinDate.Format("2006-01-02"),
		info.LastActiveDate.Format("2006-01-02"),
		info.FilesProcessed,
		humanize.Bytes(uint64(info.TotalDataUsed)),
		humanize.Bytes(uint64(info.DailyDataUsed)),
		info.LastResetDate.Format("2006-01-02"),
		strings.ToUpper(info.Tier),
		expiry,
	), nil
}

// BroadcastResult tallies a broadcast run, the done/success/failed
// counters admin.py's broadcast_ reports.
type BroadcastResult struct {
	Total    int
	Success  int
	Failed   int
	Duration time.Duration
}

// Broadcast sends text to every known user via Transport.SendText and
// reports how many sends succeeded and failed. It does not forward an
// existing message: chatapi.Transport has no message-forward primitive.
func (a *Admin) Broadcast(ctx context.Context, text string) (BroadcastResult, error) {
	start := time.Now()
	ids, err := a.store.AllUserIDs(ctx)
	if err != nil {
		return BroadcastResult{}, wrapStore(err, "broadcast", 0)
	}

	res := BroadcastResult{Total: len(ids)}
	for _, id := range ids {
		if _, err := a.transport.SendText(ctx, id, text); err != nil {
			res.Failed++
			logger.Debug("admin: broadcast send failed", "user_id", id, "error", err)
			continue
		}
		res.Success++
	}
	res.Duration = time.Since(start)
	return res, nil
}

// maintenanceFile is the sentinel admin.py's maintenance_mode toggles.
const maintenanceFile = "maintenance.txt"

// maintenanceDoc is the optional structured variant the DOMAIN STACK
// wires github.com/BurntSushi/toml for; a bare empty file still just
// toggles the flag, matching the original's plain touch/remove.
type maintenanceDoc struct {
	Maintenance struct {
		Reason   string `toml:"reason"`
		Operator string `toml:"operator"`
	} `toml:"maintenance"`
}

// SetMaintenance turns maintenance mode on or off. reason/operator are
// only recorded when turning it on; when both are empty a bare
// sentinel file with no [maintenance] block is written.
func (a *Admin) SetMaintenance(on bool, reason, operator string) (string, error) {
	if on {
		if _, err := os.Stat(maintenanceFile); err == nil {
			return "Maintenance mode is already enabled.", nil
		}
		if err := writeMaintenanceFile(reason, operator); err != nil {
			return "", xerrors.Wrap(err).Category(xerrors.CategoryFileIO).Component("admin").Build()
		}
		return "Maintenance mode has been enabled.\n\nAll user requests will be paused.", nil
	}

	if _, err := os.Stat(maintenanceFile); os.IsNotExist(err) {
		return "Maintenance mode is already disabled.", nil
	}
	if err := os.Remove(maintenanceFile); err != nil {
		return "", xerrors.Wrap(err).Category(xerrors.CategoryFileIO).Component("admin").Build()
	}
	return "Maintenance mode has been disabled.\n\nBot is now fully operational.", nil
}

// IsMaintenanceMode reports whether the sentinel file is present.
func IsMaintenanceMode() bool {
	_, err := os.Stat(maintenanceFile)
	return err == nil
}

// MaintenanceReason reads the optional reason/operator out of a
// structured maintenance.txt, returning ("", "") for a bare sentinel or
// a missing file.
func MaintenanceReason() (reason, operator string) {
	f, err := os.Open(maintenanceFile)
	if err != nil {
		return "", ""
	}
	defer f.Close()

	var doc maintenanceDoc
	if _, err := toml.NewDecoder(bufio.NewReader(f)).Decode(&doc); err != nil {
		return "", ""
	}
	return doc.Maintenance.Reason, doc.Maintenance.Operator
}

func writeMaintenanceFile(reason, operator string) error {
	if reason == "" && operator == "" {
		return os.WriteFile(maintenanceFile, []byte("enabled"), 0o644)
	}
	var doc maintenanceDoc
	doc.Maintenance.Reason = reason
	doc.Maintenance.Operator = operator

	f, err := os.Create(maintenanceFile)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(doc)
}

func wrapStore(err error, op string, userID int64) error {
	return xerrors.Wrap(err).
		Category(xerrors.CategoryQuota).
		Component("admin").
		Context("op", op).
		Context("user_id", userID).
		Build()
}
