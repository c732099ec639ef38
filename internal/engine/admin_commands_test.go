package engine

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/f2lnk/f2lnk-go/internal/admin"
)

type fakeAdminStore struct {
	users     map[int64]*admin.UserSummary
	banned    map[int64]bool
	authorized map[int64]bool
}

func newFakeAdminStore() *fakeAdminStore {
	return &fakeAdminStore{
		users:      make(map[int64]*admin.UserSummary),
		banned:     make(map[int64]bool),
		authorized: make(map[int64]bool),
	}
}

func (s *fakeAdminStore) UserInfo(_ context.Context, userID int64) (*admin.UserSummary, error) {
	return s.users[userID], nil
}
func (s *fakeAdminStore) TotalUsers(context.Context) (int, error) { return len(s.users), nil }
func (s *fakeAdminStore) AllUserIDs(context.Context) ([]int64, error) {
	ids := make([]int64, 0, len(s.users))
	for id := range s.users {
		ids = append(ids, id)
	}
	return ids, nil
}
func (s *fakeAdminStore) Ban(_ context.Context, userID int64) (bool, error) {
	if s.banned[userID] {
		return false, nil
	}
	s.banned[userID] = true
	return true, nil
}
func (s *fakeAdminStore) Unban(_ context.Context, userID int64) (bool, error) {
	if !s.banned[userID] {
		return false, nil
	}
	delete(s.banned, userID)
	return true, nil
}
func (s *fakeAdminStore) IsBanned(_ context.Context, userID int64) (bool, error) {
	return s.banned[userID], nil
}
func (s *fakeAdminStore) Authorize(_ context.Context, id int64) (bool, error) {
	if s.authorized[id] {
		return false, nil
	}
	s.authorized[id] = true
	return true, nil
}
func (s *fakeAdminStore) Unauthorize(_ context.Context, id int64) (bool, error) {
	if !s.authorized[id] {
		return false, nil
	}
	delete(s.authorized, id)
	return true, nil
}

func newTestAdminEngine(owner int64) (*Engine, *fakeAdminStore) {
	e, transport := newTestEngine()
	store := newFakeAdminStore()
	e.Admin = admin.New(store, e.Gate, transport)
	e.IsOwner = func(id int64) bool { return id == owner }
	return e, store
}

func TestHandleAdminCommandRejectsNonOwner(t *testing.T) {
	e, _ := newTestAdminEngine(1)
	_, err := e.HandleAdminCommand(context.Background(), 2, "users", nil)
	assert.ErrorIs(t, err, ErrNotOwner)
}

func TestHandleAdminCommandBanAndUnban(t *testing.T) {
	e, store := newTestAdminEngine(1)

	msg, err := e.HandleAdminCommand(context.Background(), 1, "ban", []string{"42"})
	require.NoError(t, err)
	assert.Contains(t, msg, "has been banned")
	assert.True(t, store.banned[42])

	msg, err = e.HandleAdminCommand(context.Background(), 1, "ban", []string{"42"})
	require.NoError(t, err)
	assert.Contains(t, msg, "already banned")

	msg, err = e.HandleAdminCommand(context.Background(), 1, "unban", []string{"42"})
	require.NoError(t, err)
	assert.Contains(t, msg, "unbanned")
	assert.False(t, store.banned[42])
}

func TestHandleAdminCommandAuthorizeRefusesMissingArg(t *testing.T) {
	e, _ := newTestAdminEngine(1)
	_, err := e.HandleAdminCommand(context.Background(), 1, "authorize", nil)
	assert.Error(t, err)
}

func TestHandleAdminCommandSetTierRejectsShortArgs(t *testing.T) {
	e, _ := newTestAdminEngine(1)
	msg, err := e.HandleAdminCommand(context.Background(), 1, "set_tier", []string{"42", "gold"})
	require.NoError(t, err)
	assert.Contains(t, msg, "Usage")
}

func TestHandleAdminCommandSetTierAppliesTier(t *testing.T) {
	e, _ := newTestAdminEngine(1)
	msg, err := e.HandleAdminCommand(context.Background(), 1, "set_tier", []string{"42", "gold", "30", "1000000"})
	require.NoError(t, err)
	assert.Contains(t, msg, "GOLD")
}

func TestHandleAdminCommandUsersReportsCount(t *testing.T) {
	e, store := newTestAdminEngine(1)
	store.users[42] = &admin.UserSummary{UserID: 42}

	msg, err := e.HandleAdminCommand(context.Background(), 1, "users", nil)
	require.NoError(t, err)
	assert.Contains(t, msg, "1")
}

func TestHandleAdminCommandUserInfoReportsMissingUser(t *testing.T) {
	e, _ := newTestAdminEngine(1)
	msg, err := e.HandleAdminCommand(context.Background(), 1, "userinfo", []string{"999"})
	require.NoError(t, err)
	assert.Contains(t, msg, "No user found")
}

func TestHandleAdminCommandBroadcastRejectsEmptyText(t *testing.T) {
	e, _ := newTestAdminEngine(1)
	msg, err := e.HandleAdminCommand(context.Background(), 1, "broadcast", nil)
	require.NoError(t, err)
	assert.Contains(t, msg, "Usage")
}

func TestHandleAdminCommandBroadcastDeliversToAllUsers(t *testing.T) {
	e, store := newTestAdminEngine(1)
	store.users[42] = &admin.UserSummary{UserID: 42}
	store.users[43] = &admin.UserSummary{UserID: 43}

	msg, err := e.HandleAdminCommand(context.Background(), 1, "broadcast", []string{"hello", "world"})
	require.NoError(t, err)
	assert.Contains(t, msg, "2/2 delivered")
}

func TestHandleAdminCommandMaintenanceTogglesSentinelFile(t *testing.T) {
	e, _ := newTestAdminEngine(1)
	t.Cleanup(func() { os.Remove("maintenance.txt") })

	msg, err := e.HandleAdminCommand(context.Background(), 1, "maintenance", []string{"on", "db", "upgrade"})
	require.NoError(t, err)
	assert.Contains(t, msg, "enabled")
	assert.True(t, admin.IsMaintenanceMode())

	msg, err = e.HandleAdminCommand(context.Background(), 1, "maintenance", []string{"off"})
	require.NoError(t, err)
	assert.Contains(t, msg, "disabled")
	assert.False(t, admin.IsMaintenanceMode())
}

func TestHandleAdminCommandUnknownCommand(t *testing.T) {
	e, _ := newTestAdminEngine(1)
	_, err := e.HandleAdminCommand(context.Background(), 1, "nonexistent", nil)
	assert.Error(t, err)
}

func TestHandleAdminCommandRejectsWhenAdminNotConfigured(t *testing.T) {
	e, _ := newTestEngine()
	e.IsOwner = func(int64) bool { return true }
	_, err := e.HandleAdminCommand(context.Background(), 1, "users", nil)
	assert.Error(t, err)
}
