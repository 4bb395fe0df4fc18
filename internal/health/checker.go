package health

import (
	"context"
	"sync"
	"time"
)

const (
	StatusReady       = "ready"
	StatusDegraded    = "degraded"
	StatusUnavailable = "unavailable"
)

// Probe reports whether one dependency is usable
type Probe func(ctx context.Context) error

type probe struct {
	name     string
	critical bool
	fn       Probe
}

// Report is the outcome of running every registered probe
type Report struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
	// Ready is false when a critical probe failed
	Ready bool `json:"ready"`
}

// Checker runs dependency probes concurrently with a shared timeout
type Checker struct {
	mu        sync.RWMutex
	probes    []probe
	timeout   time.Duration
	version   string
	startedAt time.Time
}

func NewChecker(version string, timeout time.Duration) *Checker {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Checker{
		timeout:   timeout,
		version:   version,
		startedAt: time.Now(),
	}
}

// Register adds a probe. A failing critical probe makes the service not
// ready; a failing non-critical probe only degrades it.
func (c *Checker) Register(name string, critical bool, fn Probe) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.probes = append(c.probes, probe{name: name, critical: critical, fn: fn})
}

func (c *Checker) Version() string { return c.version }

func (c *Checker) Uptime() time.Duration { return time.Since(c.startedAt) }

// Check runs all probes and summarizes them
func (c *Checker) Check(ctx context.Context) Report {
	c.mu.RLock()
	probes := append([]probe(nil), c.probes...)
	c.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	results := make([]error, len(probes))
	var wg sync.WaitGroup
	for i, p := range probes {
		wg.Add(1)
		go func(i int, p probe) {
			defer wg.Done()
			results[i] = p.fn(ctx)
		}(i, p)
	}
	wg.Wait()

	report := Report{Status: StatusReady, Checks: map[string]string{"api": "ok"}, Ready: true}
	for i, p := range probes {
		if results[i] == nil {
			report.Checks[p.name] = "ok"
			continue
		}
		report.Checks[p.name] = results[i].Error()
		if p.critical {
			report.Ready = false
			report.Status = StatusUnavailable
		} else if report.Ready {
			report.Status = StatusDegraded
		}
	}
	return report
}
