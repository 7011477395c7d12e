// Package probe tracks generation tier availability in the background so
// status requests answer from a snapshot instead of blocking on network
// checks.
package probe

import (
	"context"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/fentz26/planora/internal/llm"
	"github.com/fentz26/planora/internal/models"
)

// fallbackTier is pinned to every snapshot; the rule-based tier has no
// dependencies and is always available.
const fallbackTier = "fallback"

// Prober periodically probes each provider and caches the results.
type Prober struct {
	providers []llm.Provider
	timeout   time.Duration

	mu       sync.RWMutex
	statuses []models.TierStatus

	// Control
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Test configuration
	interval time.Duration
}

// New creates a prober over the given providers. Probe order follows
// provider order, which is also the selector's tier order.
func New(providers []llm.Provider, cfg llm.ProbeConfig) *Prober {
	ctx, cancel := context.WithCancel(context.Background())

	interval := cfg.Interval()
	if interval <= 0 {
		interval = 30 * time.Second
	}
	timeout := cfg.Timeout()
	if timeout <= 0 {
		timeout = 2 * time.Second
	}

	p := &Prober{
		providers: providers,
		timeout:   timeout,
		ctx:       ctx,
		cancel:    cancel,
		interval:  interval,
	}
	p.statuses = p.check(ctx)
	return p
}

// Start begins the background probe loop.
func (p *Prober) Start() {
	p.wg.Add(1)
	go p.probeLoop()
	log.Println("Prober started")
}

// Stop gracefully stops the probe loop.
func (p *Prober) Stop() {
	p.cancel()
	p.wg.Wait()
	log.Println("Prober stopped")
}

func (p *Prober) probeLoop() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.Refresh(p.ctx)
		}
	}
}

// Refresh probes every tier now and replaces the cached snapshot.
func (p *Prober) Refresh(ctx context.Context) {
	statuses := p.check(ctx)

	p.mu.Lock()
	p.statuses = statuses
	p.mu.Unlock()
}

func (p *Prober) check(ctx context.Context) []models.TierStatus {
	statuses := make([]models.TierStatus, 0, len(p.providers)+1)
	for _, provider := range p.providers {
		pctx, cancel := context.WithTimeout(ctx, p.timeout)
		err := provider.Probe(pctx)
		cancel()

		status := models.TierStatus{
			Name:      provider.Name(),
			Available: err == nil,
			CheckedAt: time.Now().UTC(),
		}
		if err != nil {
			status.Detail = err.Error()
		}
		statuses = append(statuses, status)
	}

	statuses = append(statuses, models.TierStatus{
		Name:      fallbackTier,
		Available: true,
		CheckedAt: time.Now().UTC(),
	})
	return statuses
}

// Statuses returns a copy of the latest snapshot.
func (p *Prober) Statuses() []models.TierStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]models.TierStatus, len(p.statuses))
	copy(out, p.statuses)
	return out
}

// CurrentMethod returns the tier a generation request would settle on
// right now: the first available tier in order.
func (p *Prober) CurrentMethod() string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, s := range p.statuses {
		if s.Available {
			return s.Name
		}
	}
	return fallbackTier
}

// OllamaInstalled reports whether an ollama binary is present on this
// machine, regardless of whether the server is running.
func OllamaInstalled() bool {
	if _, err := exec.LookPath("ollama"); err == nil {
		return true
	}

	// Common install locations outside PATH
	paths := []string{
		"/usr/local/bin/ollama",
		"/usr/bin/ollama",
		filepath.Join(os.Getenv("HOME"), ".local/bin/ollama"),
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return true
		}
	}
	return false
}
