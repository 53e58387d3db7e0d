package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"main/config"
	"main/model"
	"main/utils"

	"github.com/google/uuid"
)

// Scanner is the background anomaly detector. It owns its lifecycle: one
// loop, never two scans in flight, and Stop lets the current tick finish
// before the loop halts.
type Scanner struct {
	activity  ActivityStore
	users     UserStore
	monitored MonitorStore

	window    time.Duration
	lookback  time.Duration
	threshold int

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}

	now func() time.Time
}

func NewScanner(cfg *config.Config, activity ActivityStore, users UserStore, monitored MonitorStore) *Scanner {
	return &Scanner{
		activity:  activity,
		users:     users,
		monitored: monitored,
		window:    cfg.DetectionWindow,
		lookback:  cfg.ScanLookback,
		threshold: cfg.ActivityThreshold,
		now:       time.Now,
	}
}

// Start launches the scan loop. A second Start while running is refused.
func (s *Scanner) Start(interval time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		log.Printf("Warning: activity scanner is already running")
		return
	}

	log.Printf("Starting activity scanner (interval %s, window %s, threshold %d)", interval, s.window, s.threshold)

	s.running = true
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.run(interval)
}

// Stop signals the loop and blocks until any in-flight tick has finished.
func (s *Scanner) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		log.Printf("Warning: activity scanner is not running")
		return
	}
	stop, done := s.stop, s.done
	s.mu.Unlock()

	close(stop)
	<-done

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	log.Printf("Stopped activity scanner")
}

func (s *Scanner) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scanner) run(interval time.Duration) {
	defer close(s.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			// Per-tick errors are logged and swallowed; the loop
			// continues on the next tick.
			if err := s.Scan(context.Background()); err != nil {
				utils.TrackError("monitoring", "scan_failed")
				log.Printf("Error scanning user activity: %v", err)
			}
		}
	}
}

// Scan performs one detection pass: pull every activity entry inside the
// lookback, group by user, and slide the detection window over each
// user's timestamps. Users whose peak rate meets the threshold and are
// not already actively monitored get a new MonitoredUser row.
func (s *Scanner) Scan(ctx context.Context) error {
	now := s.now()

	entries, err := s.activity.EntriesSince(ctx, now.Add(-s.lookback))
	if err != nil {
		return fmt.Errorf("failed to load recent activity: %w", err)
	}

	byUser := make(map[string][]time.Time)
	for _, entry := range entries {
		if entry.UserID == "" {
			continue
		}
		byUser[entry.UserID] = append(byUser[entry.UserID], entry.Timestamp)
	}

	for userID, times := range byUser {
		if err := s.evaluateUser(ctx, userID, times, now); err != nil {
			utils.TrackError("monitoring", "evaluation_failed")
			log.Printf("Error evaluating activity for user %s: %v", userID, err)
		}
	}

	utils.ScannerTicks.Inc()
	return nil
}

func (s *Scanner) evaluateUser(ctx context.Context, userID string, times []time.Time, now time.Time) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to fetch user: %w", err)
	}
	if user == nil || user.IsAdmin() {
		return nil
	}

	peak := maxWindowCount(times, s.window)
	if peak < s.threshold {
		return nil
	}

	existing, err := s.monitored.ActiveForUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to check monitoring state: %w", err)
	}
	if existing != nil {
		log.Printf("User %s is already being monitored", userID)
		return nil
	}

	mu := &model.MonitoredUser{
		MonitorID:    uuid.New().String(),
		UserID:       userID,
		Reason:       fmt.Sprintf("Performed %d actions in %s", peak, s.window),
		DetectedAt:   now,
		ActionsCount: peak,
		WindowSecs:   int(s.window.Seconds()),
		IsActive:     true,
	}

	if err := s.monitored.Insert(ctx, mu); err != nil {
		return fmt.Errorf("failed to flag user: %w", err)
	}

	utils.ScannerDetections.Inc()
	log.Printf("Flagged user %s: %s", user.Username, mu.Reason)
	return nil
}

// maxWindowCount slides a window of width w over ascending timestamps
// with two pointers and returns the largest count of entries falling in
// any [t-w, t] span.
func maxWindowCount(times []time.Time, w time.Duration) int {
	max := 0
	left := 0
	for right := range times {
		for times[right].Sub(times[left]) > w {
			left++
		}
		if count := right - left + 1; count > max {
			max = count
		}
	}
	return max
}

// GetMonitoredUsers lists monitored users for the admin review surface.
func (s *Scanner) GetMonitoredUsers(ctx context.Context, activeOnly bool) ([]*model.MonitoredUser, error) {
	return s.monitored.List(ctx, activeOnly)
}

// ResolveMonitoredUser closes an active monitoring row. The row is kept
// as an audit trail, which also re-arms detection for that user.
func (s *Scanner) ResolveMonitoredUser(ctx context.Context, monitorID, adminID string) (*model.MonitoredUser, error) {
	mu, err := s.monitored.FindByID(ctx, monitorID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch monitored user: %w", err)
	}
	if mu == nil {
		return nil, ErrNotFound
	}

	mu.IsActive = false
	mu.ResolvedAt = s.now()
	mu.ResolvedBy = adminID

	if err := s.monitored.Update(ctx, mu); err != nil {
		return nil, fmt.Errorf("failed to resolve monitored user: %w", err)
	}

	return mu, nil
}
