package enrichment

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"jobboard-gateway/internal/logging"
)

const (
	defaultBurst = 2

	// pruneInterval and pruneIdle drive the background cleanup started by
	// NewEnricher
	pruneInterval = time.Minute
	pruneIdle     = 10 * time.Minute
)

type hostLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// HostLimiter rate limits outbound fetches per host
type HostLimiter struct {
	perMinute int
	burst     int
	hosts     map[string]*hostLimiter
	mu        sync.Mutex
	logger    logging.Logger

	stopPrune chan struct{}
	pruneDone chan struct{}
}

// NewHostLimiter allows perMinute fetches per host. A non-positive value
// disables limiting.
func NewHostLimiter(perMinute int, logger logging.Logger) *HostLimiter {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &HostLimiter{
		perMinute: perMinute,
		burst:     defaultBurst,
		hosts:     make(map[string]*hostLimiter),
		logger:    logger.WithField("component", "host_limiter"),
	}
}

// Wait blocks until a fetch of rawURL is allowed or ctx is done
func (hl *HostLimiter) Wait(ctx context.Context, rawURL string) error {
	if hl == nil || hl.perMinute <= 0 {
		return nil
	}
	return hl.get(hostOf(rawURL)).Wait(ctx)
}

func (hl *HostLimiter) get(host string) *rate.Limiter {
	hl.mu.Lock()
	defer hl.mu.Unlock()

	if hl.hosts == nil {
		hl.hosts = make(map[string]*hostLimiter)
	}
	if h, ok := hl.hosts[host]; ok {
		h.lastSeen = time.Now()
		return h.limiter
	}

	limit := rate.Every(time.Minute / time.Duration(hl.perMinute))
	h := &hostLimiter{limiter: rate.NewLimiter(limit, hl.burst), lastSeen: time.Now()}
	hl.hosts[host] = h

	hl.logger.Debug("Created host rate limiter", map[string]interface{}{
		"host":       host,
		"per_minute": hl.perMinute,
		"burst":      hl.burst,
	})
	return h.limiter
}

// Prune drops limiters for hosts not seen within idle
func (hl *HostLimiter) Prune(idle time.Duration) int {
	hl.mu.Lock()
	defer hl.mu.Unlock()

	removed := 0
	for host, h := range hl.hosts {
		if time.Since(h.lastSeen) > idle {
			delete(hl.hosts, host)
			removed++
		}
	}
	return removed
}

// StartPruning drops limiters idle for longer than idle every interval,
// until Stop is called. Calling it again while running does nothing.
func (hl *HostLimiter) StartPruning(interval, idle time.Duration) {
	if hl == nil || interval <= 0 {
		return
	}

	hl.mu.Lock()
	if hl.stopPrune != nil {
		hl.mu.Unlock()
		return
	}
	stop, done := make(chan struct{}), make(chan struct{})
	hl.stopPrune, hl.pruneDone = stop, done
	hl.mu.Unlock()

	ticker := time.NewTicker(interval)
	go func() {
		defer close(done)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if removed := hl.Prune(idle); removed > 0 {
					hl.logger.Debug("Pruned idle host limiters", map[string]interface{}{"removed": removed})
				}
			case <-stop:
				return
			}
		}
	}()
}

// Stop ends the pruning goroutine and waits for it to exit
func (hl *HostLimiter) Stop() {
	if hl == nil {
		return
	}

	hl.mu.Lock()
	stop, done := hl.stopPrune, hl.pruneDone
	hl.stopPrune, hl.pruneDone = nil, nil
	hl.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}

func (hl *HostLimiter) size() int {
	hl.mu.Lock()
	defer hl.mu.Unlock()
	return len(hl.hosts)
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return strings.ToLower(rawURL)
	}
	return strings.ToLower(u.Hostname())
}
