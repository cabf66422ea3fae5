package notification

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	notificationRepo "github.com/tgiokas/BellNotifications/database/repository/notification"
	"github.com/tgiokas/BellNotifications/models"
	"github.com/tgiokas/BellNotifications/services/push"

	"go.uber.org/zap"
)

// memoryRepo is an in-memory NotificationRepository used to exercise the
// service without a database.
type memoryRepo struct {
	mu       sync.Mutex
	items    []models.Notification
	statuses map[string]*models.NotificationStatus // keyed by notification id
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{statuses: map[string]*models.NotificationStatus{}}
}

func (r *memoryRepo) Insert(_ context.Context, n models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n.DedupeKey != "" {
		for _, existing := range r.items {
			if existing.TenantID == n.TenantID && existing.UserID == n.UserID && existing.DedupeKey == n.DedupeKey {
				return notificationRepo.ErrDuplicateKey
			}
		}
	}
	r.items = append(r.items, n)
	r.statuses[n.ID] = &models.NotificationStatus{
		NotificationID: n.ID,
		TenantID:       n.TenantID,
		UserID:         n.UserID,
	}
	return nil
}

func (r *memoryRepo) GetByDedupeKey(_ context.Context, tenantID, userID, dedupeKey string) (*models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		n := r.items[i]
		if n.TenantID == tenantID && n.UserID == userID && n.DedupeKey == dedupeKey {
			return &n, nil
		}
	}
	return nil, nil
}

func (r *memoryRepo) ListWithStatus(_ context.Context, tenantID, userID string, cursorCreatedAt *time.Time, cursorID string, limit int) ([]models.NotificationWithStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []models.Notification
	for _, n := range r.items {
		if n.TenantID != tenantID || n.UserID != userID {
			continue
		}
		if cursorCreatedAt != nil {
			older := n.CreatedAt.Before(*cursorCreatedAt) ||
				(n.CreatedAt.Equal(*cursorCreatedAt) && n.ID < cursorID)
			if !older {
				continue
			}
		}
		matched = append(matched, n)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})
	if len(matched) > limit {
		matched = matched[:limit]
	}

	out := make([]models.NotificationWithStatus, 0, len(matched))
	for _, n := range matched {
		out = append(out, n.WithStatus(*r.statuses[n.ID]))
	}
	return out, nil
}

func (r *memoryRepo) CountUnread(_ context.Context, tenantID, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, n := range r.items {
		if n.TenantID != tenantID || n.UserID != userID {
			continue
		}
		if r.statuses[n.ID].Unread() {
			count++
		}
	}
	return count, nil
}

func (r *memoryRepo) MarkRead(_ context.Context, tenantID, userID, notificationID string, at time.Time) (bool, error) {
	return r.setTimestamp(tenantID, userID, notificationID, at, true)
}

func (r *memoryRepo) MarkDismissed(_ context.Context, tenantID, userID, notificationID string, at time.Time) (bool, error) {
	return r.setTimestamp(tenantID, userID, notificationID, at, false)
}

func (r *memoryRepo) setTimestamp(tenantID, userID, notificationID string, at time.Time, read bool) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	status, ok := r.statuses[notificationID]
	if !ok || status.TenantID != tenantID || status.UserID != userID {
		return false, notificationRepo.ErrStatusNotFound
	}
	if read {
		if status.ReadAt != nil {
			return false, nil
		}
		status.ReadAt = &at
	} else {
		if status.DismissedAt != nil {
			return false, nil
		}
		status.DismissedAt = &at
	}
	return true, nil
}

func (r *memoryRepo) MarkAllRead(_ context.Context, tenantID, userID string, at time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var changed int64
	for _, status := range r.statuses {
		if status.TenantID != tenantID || status.UserID != userID {
			continue
		}
		if status.ReadAt == nil {
			status.ReadAt = &at
			changed++
		}
	}
	return changed, nil
}

// recordingBroadcaster captures fan-out calls for assertions.
type recordingBroadcaster struct {
	mu           sync.Mutex
	unreadCounts []int64
	created      []models.NotificationWithStatus
}

func (b *recordingBroadcaster) BroadcastUnreadCount(_, _ string, count int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.unreadCounts = append(b.unreadCounts, count)
}

func (b *recordingBroadcaster) BroadcastNotificationCreated(_, _ string, n models.NotificationWithStatus) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.created = append(b.created, n)
}

func (b *recordingBroadcaster) lastUnreadCount(t *testing.T) int64 {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.unreadCounts) == 0 {
		t.Fatal("no unread count broadcast recorded")
	}
	return b.unreadCounts[len(b.unreadCounts)-1]
}

func (b *recordingBroadcaster) unreadBroadcasts() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.unreadCounts)
}

func newTestService() (*DefaultNotificationService, *memoryRepo, *recordingBroadcaster) {
	repo := newMemoryRepo()
	broadcast := &recordingBroadcaster{}
	svc := &DefaultNotificationService{
		Repo:      repo,
		Broadcast: broadcast,
		Push:      push.NoopSender{},
		Logger:    zap.NewNop(),
	}
	return svc, repo, broadcast
}

func mustCreate(t *testing.T, svc *DefaultNotificationService, req models.CreateNotificationRequest) string {
	t.Helper()
	id, err := svc.Create(context.Background(), req)
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	return id
}

func TestCreateValidation(t *testing.T) {
	svc, _, _ := newTestService()

	cases := []struct {
		name string
		req  models.CreateNotificationRequest
	}{
		{"missing user", models.CreateNotificationRequest{Type: "ALERT", Title: "t"}},
		{"missing type", models.CreateNotificationRequest{UserID: "u1", Title: "t"}},
		{"missing title", models.CreateNotificationRequest{UserID: "u1", Type: "ALERT"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Create(context.Background(), tc.req); !errors.Is(err, ErrInvalidRequest) {
				t.Errorf("Create() error = %v, want ErrInvalidRequest", err)
			}
		})
	}
}

func TestCreateDedupe(t *testing.T) {
	svc, _, broadcast := newTestService()

	req := models.CreateNotificationRequest{
		TenantID:  "acme",
		UserID:    "u1",
		Type:      "APPROVAL_NEEDED",
		Title:     "Approve request",
		DedupeKey: "approval-42",
	}

	first := mustCreate(t, svc, req)
	second := mustCreate(t, svc, req)
	if first != second {
		t.Errorf("duplicate create returned id %q, want existing id %q", second, first)
	}

	count, err := svc.GetUnreadCount(context.Background(), "acme", "u1")
	if err != nil {
		t.Fatalf("GetUnreadCount() error: %v", err)
	}
	if count != 1 {
		t.Errorf("unread count = %d, want 1 after deduplicated create", count)
	}
	if got := len(broadcast.created); got != 1 {
		t.Errorf("notification_created broadcasts = %d, want 1", got)
	}
}

func TestCreateDistinctWithoutDedupeKey(t *testing.T) {
	svc, _, _ := newTestService()

	req := models.CreateNotificationRequest{UserID: "u1", Type: "ALERT", Title: "Same title"}
	first := mustCreate(t, svc, req)
	second := mustCreate(t, svc, req)
	if first == second {
		t.Error("creates without a dedupe key should produce distinct notifications")
	}
}

func TestCreateSameDedupeKeyDifferentUsers(t *testing.T) {
	svc, _, _ := newTestService()

	first := mustCreate(t, svc, models.CreateNotificationRequest{
		UserID: "u1", Type: "ALERT", Title: "t", DedupeKey: "k",
	})
	second := mustCreate(t, svc, models.CreateNotificationRequest{
		UserID: "u2", Type: "ALERT", Title: "t", DedupeKey: "k",
	})
	if first == second {
		t.Error("the same dedupe key for different users should not collide")
	}
}

func TestCreateBroadcasts(t *testing.T) {
	svc, _, broadcast := newTestService()

	mustCreate(t, svc, models.CreateNotificationRequest{UserID: "u1", Type: "ALERT", Title: "first"})
	mustCreate(t, svc, models.CreateNotificationRequest{UserID: "u1", Type: "ALERT", Title: "second"})

	if got := broadcast.lastUnreadCount(t); got != 2 {
		t.Errorf("last broadcast unread count = %d, want 2", got)
	}
	if got := len(broadcast.created); got != 2 {
		t.Errorf("notification_created broadcasts = %d, want 2", got)
	}
	if broadcast.created[0].IsRead || broadcast.created[0].IsDismissed {
		t.Error("a freshly created notification must broadcast as unread and undismissed")
	}
}

func TestUnreadAccounting(t *testing.T) {
	svc, _, broadcast := newTestService()
	ctx := context.Background()

	var ids []string
	for _, title := range []string{"a", "b", "c"} {
		ids = append(ids, mustCreate(t, svc, models.CreateNotificationRequest{
			UserID: "u1", Type: "ALERT", Title: title,
		}))
	}

	if err := svc.MarkAsRead(ctx, "", "u1", ids[0]); err != nil {
		t.Fatalf("MarkAsRead() error: %v", err)
	}
	if got := broadcast.lastUnreadCount(t); got != 2 {
		t.Errorf("unread count after first read = %d, want 2", got)
	}

	if err := svc.Dismiss(ctx, "", "u1", ids[1]); err != nil {
		t.Fatalf("Dismiss() error: %v", err)
	}
	if got := broadcast.lastUnreadCount(t); got != 1 {
		t.Errorf("unread count after dismiss = %d, want 1", got)
	}

	// Re-reading is a no-op and must not broadcast again.
	before := broadcast.unreadBroadcasts()
	if err := svc.MarkAsRead(ctx, "", "u1", ids[0]); err != nil {
		t.Fatalf("MarkAsRead() repeat error: %v", err)
	}
	if got := broadcast.unreadBroadcasts(); got != before {
		t.Errorf("repeat MarkAsRead broadcast count = %d, want %d", got, before)
	}

	if err := svc.MarkAsRead(ctx, "", "u1", ids[2]); err != nil {
		t.Fatalf("MarkAsRead() error: %v", err)
	}
	if got := broadcast.lastUnreadCount(t); got != 0 {
		t.Errorf("unread count after reading all = %d, want 0", got)
	}
}

func TestMarkAsReadUnknownNotification(t *testing.T) {
	svc, _, _ := newTestService()

	if err := svc.MarkAsRead(context.Background(), "", "u1", "missing"); !errors.Is(err, ErrStatusNotFound) {
		t.Errorf("MarkAsRead() error = %v, want ErrStatusNotFound", err)
	}
	if err := svc.Dismiss(context.Background(), "", "u1", "missing"); !errors.Is(err, ErrStatusNotFound) {
		t.Errorf("Dismiss() error = %v, want ErrStatusNotFound", err)
	}
}

func TestMarkAllAsRead(t *testing.T) {
	svc, _, broadcast := newTestService()
	ctx := context.Background()

	for _, title := range []string{"a", "b", "c"} {
		mustCreate(t, svc, models.CreateNotificationRequest{UserID: "u1", Type: "ALERT", Title: title})
	}

	before := broadcast.unreadBroadcasts()
	if err := svc.MarkAllAsRead(ctx, "", "u1"); err != nil {
		t.Fatalf("MarkAllAsRead() error: %v", err)
	}
	if got := broadcast.unreadBroadcasts(); got != before+1 {
		t.Errorf("broadcasts after mark-all = %d, want exactly one more than %d", got, before)
	}
	if got := broadcast.lastUnreadCount(t); got != 0 {
		t.Errorf("unread count after mark-all = %d, want 0", got)
	}

	// A second mark-all changes nothing and stays silent.
	before = broadcast.unreadBroadcasts()
	if err := svc.MarkAllAsRead(ctx, "", "u1"); err != nil {
		t.Fatalf("MarkAllAsRead() repeat error: %v", err)
	}
	if got := broadcast.unreadBroadcasts(); got != before {
		t.Errorf("repeat mark-all broadcast count = %d, want %d", got, before)
	}
}

func TestTenantIsolation(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	mustCreate(t, svc, models.CreateNotificationRequest{TenantID: "acme", UserID: "u1", Type: "ALERT", Title: "a"})
	mustCreate(t, svc, models.CreateNotificationRequest{TenantID: "globex", UserID: "u1", Type: "ALERT", Title: "b"})
	mustCreate(t, svc, models.CreateNotificationRequest{UserID: "u1", Type: "ALERT", Title: "c"})

	for _, tc := range []struct {
		tenant string
		want   int64
	}{
		{"acme", 1}, {"globex", 1}, {"", 1},
	} {
		count, err := svc.GetUnreadCount(ctx, tc.tenant, "u1")
		if err != nil {
			t.Fatalf("GetUnreadCount(%q) error: %v", tc.tenant, err)
		}
		if count != tc.want {
			t.Errorf("unread count for tenant %q = %d, want %d", tc.tenant, count, tc.want)
		}
	}

	page, err := svc.List(ctx, "acme", "u1", "", 10)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].Title != "a" {
		t.Errorf("tenant acme list = %+v, want only its own notification", page.Items)
	}
}

func TestListPagination(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	const total = 25
	created := map[string]bool{}
	for i := 0; i < total; i++ {
		id := mustCreate(t, svc, models.CreateNotificationRequest{
			UserID: "u1", Type: "ALERT", Title: "item",
		})
		created[id] = true
	}

	seen := map[string]bool{}
	cursor := ""
	pages := 0
	var prev *models.NotificationWithStatus
	for {
		page, err := svc.List(ctx, "", "u1", cursor, 10)
		if err != nil {
			t.Fatalf("List() error: %v", err)
		}
		pages++
		for i := range page.Items {
			item := page.Items[i]
			if seen[item.ID] {
				t.Fatalf("notification %q appeared on more than one page", item.ID)
			}
			seen[item.ID] = true
			if prev != nil && item.CreatedAt.After(prev.CreatedAt) {
				t.Fatalf("page ordering violated: %v after %v", item.CreatedAt, prev.CreatedAt)
			}
			prev = &page.Items[i]
		}
		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
		if pages > total {
			t.Fatal("pagination did not terminate")
		}
	}

	if len(seen) != total {
		t.Errorf("walked %d notifications, want %d", len(seen), total)
	}
	if pages != 3 {
		t.Errorf("page count = %d, want 3", pages)
	}
	for id := range created {
		if !seen[id] {
			t.Errorf("notification %q missing from pagination walk", id)
		}
	}
}

func TestListLimitClamping(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	for i := 0; i < 30; i++ {
		mustCreate(t, svc, models.CreateNotificationRequest{UserID: "u1", Type: "ALERT", Title: "item"})
	}

	page, err := svc.List(ctx, "", "u1", "", 0)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(page.Items) != 1 {
		t.Errorf("zero limit page size = %d, want clamp to 1", len(page.Items))
	}

	page, err = svc.List(ctx, "", "u1", "", -5)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(page.Items) != 1 {
		t.Errorf("negative limit page size = %d, want clamp to 1", len(page.Items))
	}

	page, err = svc.List(ctx, "", "u1", "", 1000)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(page.Items) != 30 {
		t.Errorf("oversized limit returned %d items, want all 30", len(page.Items))
	}
}

func TestListMalformedCursor(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		mustCreate(t, svc, models.CreateNotificationRequest{UserID: "u1", Type: "ALERT", Title: "item"})
	}

	page, err := svc.List(ctx, "", "u1", "not-a-real-cursor!!!", 10)
	if err != nil {
		t.Fatalf("List() with malformed cursor error: %v", err)
	}
	if len(page.Items) != 5 {
		t.Errorf("malformed cursor returned %d items, want the full first page of 5", len(page.Items))
	}
}

func TestListNoNextCursorOnExactFit(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		mustCreate(t, svc, models.CreateNotificationRequest{UserID: "u1", Type: "ALERT", Title: "item"})
	}

	page, err := svc.List(ctx, "", "u1", "", 10)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if page.NextCursor != "" {
		t.Errorf("NextCursor = %q, want empty when the page holds the final item", page.NextCursor)
	}
}
