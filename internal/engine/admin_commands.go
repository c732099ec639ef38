package engine

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/f2lnk/f2lnk-go/internal/admin"
	"github.com/f2lnk/f2lnk-go/internal/xerrors"
)

// ErrNotOwner is returned by HandleAdminCommand when the caller fails
// the e.IsOwner check every owner-only command requires.
var ErrNotOwner = xerrors.Newf("command restricted to bot owners").
	Category(xerrors.CategoryValidation).Component("engine").Build()

// HandleAdminCommand routes one of §5.3's owner commands (authorize,
// unauthorize, ban, unban, set_tier, users, userinfo, broadcast,
// maintenance, speedtest) to internal/admin.Admin, gating every one of
// them on e.IsOwner the way bot.py's admin plugin decorates every
// handler with an owner check before the command body runs. args is the
// command's argument tokens, already split on whitespace.
func (e *Engine) HandleAdminCommand(ctx context.Context, callerID int64, cmd string, args []string) (string, error) {
	if e.IsOwner == nil || !e.IsOwner(callerID) {
		return "", ErrNotOwner
	}
	if e.Admin == nil {
		return "", xerrors.Newf("admin surface not configured").Category(xerrors.CategoryConfiguration).Component("engine").Build()
	}

	switch cmd {
	case "authorize":
		id, err := parseUserID(args)
		if err != nil {
			return "", err
		}
		return e.Admin.Authorize(ctx, id, e.IsOwner(id))
	case "unauthorize":
		id, err := parseUserID(args)
		if err != nil {
			return "", err
		}
		return e.Admin.Unauthorize(ctx, id)
	case "ban":
		id, err := parseUserID(args)
		if err != nil {
			return "", err
		}
		return e.Admin.Ban(ctx, id)
	case "unban":
		id, err := parseUserID(args)
		if err != nil {
			return "", err
		}
		return e.Admin.Unban(ctx, id)
	case "set_tier":
		return e.handleSetTier(ctx, args)
	case "users":
		return e.Admin.Users(ctx)
	case "userinfo":
		id, err := parseUserID(args)
		if err != nil {
			return "", err
		}
		return e.Admin.UserInfo(ctx, id)
	case "broadcast":
		return e.handleBroadcast(ctx, args)
	case "maintenance":
		return e.handleMaintenance(callerID, args)
	case "speedtest":
		return e.handleSpeedtest(ctx, args)
	default:
		return "", xerrors.Newf("unknown admin command %q", cmd).Category(xerrors.CategoryValidation).Component("engine").Build()
	}
}

func parseUserID(args []string) (int64, error) {
	if len(args) == 0 {
		return 0, xerrors.Newf("missing user id argument").Category(xerrors.CategoryValidation).Component("engine").Build()
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, xerrors.Wrap(err).Category(xerrors.CategoryValidation).Component("engine").Build()
	}
	return id, nil
}

// handleSetTier expects args: USER_ID TIER DAYS LIMIT_BYTES.
func (e *Engine) handleSetTier(ctx context.Context, args []string) (string, error) {
	if len(args) < 4 {
		return "Usage: /set_tier USER_ID TIER DAYS LIMIT_BYTES", nil
	}
	userID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return "", xerrors.Wrap(err).Category(xerrors.CategoryValidation).Component("engine").Build()
	}
	days, err := strconv.Atoi(args[2])
	if err != nil {
		return "", xerrors.Wrap(err).Category(xerrors.CategoryValidation).Component("engine").Build()
	}
	limit, err := strconv.ParseInt(args[3], 10, 64)
	if err != nil {
		return "", xerrors.Wrap(err).Category(xerrors.CategoryValidation).Component("engine").Build()
	}
	return e.Admin.SetTier(ctx, userID, args[1], days, limit)
}

func (e *Engine) handleBroadcast(ctx context.Context, args []string) (string, error) {
	text := strings.Join(args, " ")
	if text == "" {
		return "Usage: /broadcast MESSAGE", nil
	}
	res, err := e.Admin.Broadcast(ctx, text)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Broadcast complete: %d/%d delivered in %s", res.Success, res.Total, res.Duration.Round(time.Millisecond)), nil
}

func (e *Engine) handleMaintenance(callerID int64, args []string) (string, error) {
	if len(args) == 0 {
		return "Usage: /maintenance on|off [reason]", nil
	}
	on := args[0] == "on"
	reason := ""
	if len(args) > 1 {
		reason = strings.Join(args[1:], " ")
	}
	operator := strconv.FormatInt(callerID, 10)
	return e.Admin.SetMaintenance(on, reason, operator)
}

func (e *Engine) handleSpeedtest(ctx context.Context, args []string) (string, error) {
	if len(args) == 0 {
		return "Usage: /speedtest URL", nil
	}
	result, err := admin.Speedtest(ctx, args[0])
	if err != nil {
		return "", err
	}
	return result.String(), nil
}
