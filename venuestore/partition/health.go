package partition

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/AntonStoeckl/venue-shards-go/venuestore"
)

const (
	defaultCheckInterval = 5 * time.Second
	defaultCheckTimeout  = 2 * time.Second
	defaultMaxFailures   = 3

	logMsgMonitorStarted     = "partition health monitor started"
	logMsgMonitorStopped     = "partition health monitor stopped"
	logMsgPartitionUnhealthy = "partition marked unhealthy"
	logMsgPartitionRecovered = "partition recovered"
	logMsgCheckFailed        = "partition health check failed"
	logAttrPartition         = "partition"
	logAttrError             = "error"
	logAttrFailures          = "consecutive_failures"
	logAttrInterval          = "interval"
)

var (
	ErrNoPartitionsToMonitor = errors.New("no partitions to monitor")
	ErrInvalidHealthOption   = errors.New("invalid health monitor option")
)

// Status is the health state of one partition.
type Status string

// Health states. A partition that has not been checked yet is unknown and counts as healthy.
const (
	StatusUnknown   Status = "unknown"
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
)

// Pinger is anything that can cheaply verify a partition answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health is a snapshot of one partition's health.
type Health struct {
	ID               ID
	Status           Status
	LastCheck        time.Time
	LastHealthy      time.Time
	ConsecutiveFails int
	LastError        string
}

// HealthMonitor periodically pings every partition and tracks consecutive failures.
// A partition becomes unhealthy after maxFailures consecutive failed checks and healthy again
// on the next successful one. All methods are safe for concurrent use.
type HealthMonitor struct {
	pingers     map[ID]Pinger
	states      map[ID]*Health
	interval    time.Duration
	timeout     time.Duration
	maxFailures int
	logger      venuestore.Logger
	onUnhealthy func(id ID)
	onRecovered func(id ID)
	now         func() time.Time
	mu          sync.RWMutex
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

// HealthOption configures a HealthMonitor.
type HealthOption func(*HealthMonitor) error

// WithCheckInterval sets how often all partitions are checked.
func WithCheckInterval(interval time.Duration) HealthOption {
	return func(h *HealthMonitor) error {
		if interval <= 0 {
			return errors.Join(ErrInvalidHealthOption, errors.New("check interval must be positive"))
		}

		h.interval = interval

		return nil
	}
}

// WithCheckTimeout bounds every single ping.
func WithCheckTimeout(timeout time.Duration) HealthOption {
	return func(h *HealthMonitor) error {
		if timeout <= 0 {
			return errors.Join(ErrInvalidHealthOption, errors.New("check timeout must be positive"))
		}

		h.timeout = timeout

		return nil
	}
}

// WithMaxFailures sets the number of consecutive failures after which a partition is unhealthy.
func WithMaxFailures(maxFailures int) HealthOption {
	return func(h *HealthMonitor) error {
		if maxFailures < 1 {
			return errors.Join(ErrInvalidHealthOption, errors.New("max failures must be at least 1"))
		}

		h.maxFailures = maxFailures

		return nil
	}
}

// WithHealthLogger sets the logger for state transitions and failed checks.
func WithHealthLogger(logger venuestore.Logger) HealthOption {
	return func(h *HealthMonitor) error {
		h.logger = logger
		return nil
	}
}

// WithOnUnhealthy sets a callback invoked when a partition becomes unhealthy.
func WithOnUnhealthy(callback func(id ID)) HealthOption {
	return func(h *HealthMonitor) error {
		h.onUnhealthy = callback
		return nil
	}
}

// WithOnRecovered sets a callback invoked when an unhealthy partition answers again.
func WithOnRecovered(callback func(id ID)) HealthOption {
	return func(h *HealthMonitor) error {
		h.onRecovered = callback
		return nil
	}
}

// NewHealthMonitor creates a monitor for the given partitions. It does not start checking.
func NewHealthMonitor(pingers map[ID]Pinger, options ...HealthOption) (*HealthMonitor, error) {
	if len(pingers) == 0 {
		return nil, ErrNoPartitionsToMonitor
	}

	h := &HealthMonitor{
		pingers:     make(map[ID]Pinger, len(pingers)),
		states:      make(map[ID]*Health, len(pingers)),
		interval:    defaultCheckInterval,
		timeout:     defaultCheckTimeout,
		maxFailures: defaultMaxFailures,
		now:         time.Now,
	}

	for id, pinger := range pingers {
		h.pingers[id] = pinger
		h.states[id] = &Health{ID: id, Status: StatusUnknown}
	}

	for _, option := range options {
		if err := option(h); err != nil {
			return nil, err
		}
	}

	return h, nil
}

// Start checks all partitions once, then keeps checking every interval in the background
// until ctx is canceled or Stop is called.
func (h *HealthMonitor) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)

	h.mu.Lock()
	h.cancel = cancel
	h.mu.Unlock()

	h.wg.Add(1)

	go func() {
		defer h.wg.Done()

		ticker := time.NewTicker(h.interval)
		defer ticker.Stop()

		h.logInfo(logMsgMonitorStarted, logAttrInterval, h.interval.String())
		h.CheckNow(runCtx)

		for {
			select {
			case <-ticker.C:
				h.CheckNow(runCtx)
			case <-runCtx.Done():
				h.logInfo(logMsgMonitorStopped)
				return
			}
		}
	}()
}

// Stop ends background checking and waits for the running check to finish.
func (h *HealthMonitor) Stop() {
	h.mu.RLock()
	cancel := h.cancel
	h.mu.RUnlock()

	if cancel != nil {
		cancel()
	}

	h.wg.Wait()
}

// CheckNow pings all partitions concurrently and waits for every result.
func (h *HealthMonitor) CheckNow(ctx context.Context) {
	var wg sync.WaitGroup

	for id, pinger := range h.pingers {
		wg.Add(1)

		go func(id ID, pinger Pinger) {
			defer wg.Done()

			checkCtx, cancel := context.WithTimeout(ctx, h.timeout)
			defer cancel()

			checkErr := pinger.Ping(checkCtx)

			// a check cut short by Stop or by the caller says nothing about the partition
			if ctx.Err() != nil {
				return
			}

			h.record(id, checkErr)
		}(id, pinger)
	}

	wg.Wait()
}

// IsHealthy reports whether the partition may be queried. A monitored partition counts as healthy
// until it reaches the failure threshold, also before its first check. IDs the monitor does not
// watch are never healthy.
func (h *HealthMonitor) IsHealthy(id ID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	state, ok := h.states[id]
	if !ok {
		return false
	}

	return state.Status != StatusUnhealthy
}

// Statuses returns a snapshot of all partitions ordered by ID.
func (h *HealthMonitor) Statuses() []Health {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]Health, 0, len(h.states))
	for _, state := range h.states {
		out = append(out, *state)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out
}

func (h *HealthMonitor) record(id ID, checkErr error) {
	var becameUnhealthy, recovered bool

	h.mu.Lock()
	state := h.states[id]
	state.LastCheck = h.now()

	if checkErr == nil {
		recovered = state.Status == StatusUnhealthy
		state.Status = StatusHealthy
		state.LastHealthy = state.LastCheck
		state.ConsecutiveFails = 0
		state.LastError = ""
	} else {
		state.ConsecutiveFails++
		state.LastError = checkErr.Error()

		if state.ConsecutiveFails >= h.maxFailures && state.Status != StatusUnhealthy {
			state.Status = StatusUnhealthy
			becameUnhealthy = true
		}
	}

	fails := state.ConsecutiveFails
	h.mu.Unlock()

	if checkErr != nil && h.logger != nil {
		h.logger.Warn(logMsgCheckFailed, logAttrPartition, id.String(), logAttrError, checkErr.Error(), logAttrFailures, fails)
	}

	if becameUnhealthy {
		h.logInfo(logMsgPartitionUnhealthy, logAttrPartition, id.String(), logAttrFailures, fails)

		if h.onUnhealthy != nil {
			h.onUnhealthy(id)
		}
	}

	if recovered {
		h.logInfo(logMsgPartitionRecovered, logAttrPartition, id.String())

		if h.onRecovered != nil {
			h.onRecovered(id)
		}
	}
}

func (h *HealthMonitor) logInfo(msg string, args ...any) {
	if h.logger != nil {
		h.logger.Info(msg, args...)
	}
}
