package services

import (
	"context"
	"testing"
	"time"

	"main/model"
)

type scannerFixture struct {
	scanner   *Scanner
	users     *fakeUserStore
	activity  *fakeActivityStore
	monitored *fakeMonitorStore
	base      time.Time
}

func newScannerFixture(t *testing.T) *scannerFixture {
	t.Helper()

	users := newFakeUserStore()
	activity := &fakeActivityStore{}
	monitored := newFakeMonitorStore()

	scanner := NewScanner(testConfig(), activity, users, monitored)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	scanner.now = func() time.Time { return base }

	return &scannerFixture{
		scanner:   scanner,
		users:     users,
		activity:  activity,
		monitored: monitored,
		base:      base,
	}
}

func (f *scannerFixture) addUser(userID, role string) {
	f.users.CreateUser(context.Background(), &model.User{
		UserID:   userID,
		Username: userID,
		Email:    userID + "@example.com",
		Role:     role,
	})
}

// burst appends n activity entries for userID, spaced apart and ending
// offset before the scanner's current time.
func (f *scannerFixture) burst(userID string, n int, spacing, endOffset time.Duration) {
	end := f.base.Add(-endOffset)
	for i := 0; i < n; i++ {
		f.activity.Append(context.Background(), &model.ActivityLog{
			UserID:     userID,
			Action:     model.ActionRead,
			EntityType: model.EntityGame,
			Timestamp:  end.Add(-time.Duration(n-1-i) * spacing),
		})
	}
}

func TestScanFlagsBurstingUser(t *testing.T) {
	f := newScannerFixture(t)
	f.addUser("u1", model.RoleRegular)

	// 15 actions inside one second trips the threshold of 15 per 20s.
	f.burst("u1", 15, 50*time.Millisecond, time.Second)

	if err := f.scanner.Scan(context.Background()); err != nil {
		t.Fatalf("Scan: %v", err)
	}

	mu, err := f.monitored.ActiveForUser(context.Background(), "u1")
	if err != nil {
		t.Fatalf("ActiveForUser: %v", err)
	}
	if mu == nil {
		t.Fatal("bursting user was not flagged")
	}
	if mu.ActionsCount != 15 {
		t.Fatalf("ActionsCount = %d, want 15", mu.ActionsCount)
	}
	if mu.WindowSecs != 20 {
		t.Fatalf("WindowSecs = %d, want 20", mu.WindowSecs)
	}
	if !mu.IsActive {
		t.Fatal("new detection is not active")
	}
}

func TestScanIgnoresSlowActivity(t *testing.T) {
	f := newScannerFixture(t)
	f.addUser("u1", model.RoleRegular)

	// 15 actions spread over the whole lookback never put 15 in one
	// 20-second window.
	f.burst("u1", 15, 4*time.Second, time.Second)

	if err := f.scanner.Scan(context.Background()); err != nil {
		t.Fatalf("Scan: %v", err)
	}

	mu, _ := f.monitored.ActiveForUser(context.Background(), "u1")
	if mu != nil {
		t.Fatal("slow activity flagged")
	}
}

func TestScanBelowThreshold(t *testing.T) {
	f := newScannerFixture(t)
	f.addUser("u1", model.RoleRegular)

	f.burst("u1", 14, 50*time.Millisecond, time.Second)

	if err := f.scanner.Scan(context.Background()); err != nil {
		t.Fatalf("Scan: %v", err)
	}

	mu, _ := f.monitored.ActiveForUser(context.Background(), "u1")
	if mu != nil {
		t.Fatal("14 actions flagged, threshold is 15")
	}
}

func TestScanSkipsAdminsAndUnknownUsers(t *testing.T) {
	f := newScannerFixture(t)
	f.addUser("admin", model.RoleAdmin)

	f.burst("admin", 30, 50*time.Millisecond, time.Second)
	f.burst("ghost", 30, 50*time.Millisecond, time.Second) // no user row

	if err := f.scanner.Scan(context.Background()); err != nil {
		t.Fatalf("Scan: %v", err)
	}

	list, _ := f.monitored.List(context.Background(), false)
	if len(list) != 0 {
		t.Fatalf("detections = %d, want 0", len(list))
	}
}

func TestScanSuppressesDuplicateDetections(t *testing.T) {
	f := newScannerFixture(t)
	f.addUser("u1", model.RoleRegular)
	f.burst("u1", 20, 50*time.Millisecond, time.Second)

	ctx := context.Background()
	if err := f.scanner.Scan(ctx); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if err := f.scanner.Scan(ctx); err != nil {
		t.Fatalf("Scan: %v", err)
	}

	list, _ := f.monitored.List(ctx, false)
	if len(list) != 1 {
		t.Fatalf("detections = %d after two scans, want 1", len(list))
	}
}

func TestResolveRearmsDetection(t *testing.T) {
	f := newScannerFixture(t)
	f.addUser("u1", model.RoleRegular)
	f.burst("u1", 20, 50*time.Millisecond, time.Second)

	ctx := context.Background()
	if err := f.scanner.Scan(ctx); err != nil {
		t.Fatalf("Scan: %v", err)
	}

	active, _ := f.monitored.ActiveForUser(ctx, "u1")
	resolved, err := f.scanner.ResolveMonitoredUser(ctx, active.MonitorID, "admin-1")
	if err != nil {
		t.Fatalf("ResolveMonitoredUser: %v", err)
	}
	if resolved.IsActive {
		t.Fatal("resolved row still active")
	}
	if resolved.ResolvedBy != "admin-1" {
		t.Fatalf("ResolvedBy = %q", resolved.ResolvedBy)
	}
	if resolved.ResolvedAt.IsZero() {
		t.Fatal("ResolvedAt not set")
	}

	// The audit row survives and the user can be flagged again.
	if err := f.scanner.Scan(ctx); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	list, _ := f.monitored.List(ctx, false)
	if len(list) != 2 {
		t.Fatalf("rows = %d after resolve and re-scan, want 2", len(list))
	}
	activeList, _ := f.monitored.List(ctx, true)
	if len(activeList) != 1 {
		t.Fatalf("active rows = %d, want 1", len(activeList))
	}
}

func TestResolveUnknownMonitor(t *testing.T) {
	f := newScannerFixture(t)

	if _, err := f.scanner.ResolveMonitoredUser(context.Background(), "missing", "admin-1"); err != ErrNotFound {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestScannerLifecycle(t *testing.T) {
	f := newScannerFixture(t)

	if f.scanner.Running() {
		t.Fatal("scanner running before Start")
	}

	f.scanner.Start(10 * time.Millisecond)
	if !f.scanner.Running() {
		t.Fatal("scanner not running after Start")
	}

	// Second Start must not spawn a second loop.
	f.scanner.Start(10 * time.Millisecond)

	time.Sleep(50 * time.Millisecond)

	f.scanner.Stop()
	if f.scanner.Running() {
		t.Fatal("scanner running after Stop")
	}

	// Stop on a stopped scanner is a no-op.
	f.scanner.Stop()
}

func TestMaxWindowCount(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	at := func(secs float64) time.Time {
		return base.Add(time.Duration(secs * float64(time.Second)))
	}

	cases := []struct {
		name  string
		times []time.Time
		want  int
	}{
		{"empty", nil, 0},
		{"single", []time.Time{at(0)}, 1},
		{"all inside window", []time.Time{at(0), at(5), at(10), at(20)}, 4},
		{"window slides", []time.Time{at(0), at(1), at(30), at(31), at(32)}, 3},
		{"spread out", []time.Time{at(0), at(25), at(50)}, 1},
		{"dense tail", []time.Time{at(0), at(40), at(41), at(42), at(43)}, 4},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := maxWindowCount(tc.times, 20*time.Second); got != tc.want {
				t.Fatalf("maxWindowCount = %d, want %d", got, tc.want)
			}
		})
	}
}
