package social

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeError
	OutcomeRateLimited
)

const (
	rateLimitBaseCooldown = time.Minute
	rateLimitMaxCooldown  = 30 * time.Minute
	maxRateLimitShift     = 5
	errorCooldown         = 5 * time.Minute
	errorCooldownAfter    = 3
)

type PoolConfig struct {
	CallsPerMinute   int           // global ceiling, 0 disables
	MinCallSpacing   time.Duration // minimum gap between any two calls
	CredentialBudget int           // calls per credential per window
	CredentialWindow time.Duration
	AcquireMaxWait   time.Duration
}

type managedCredential struct {
	cred Credential

	windowStart time.Time
	windowCount int

	cooldownUntil         time.Time
	consecutiveRateLimits int
	consecutiveErrors     int

	totalCalls int64
}

// Pool is the single chokepoint for platform calls. Every external request
// acquires a credential here first, so the global ceiling and per-credential
// budgets hold no matter how many tasks run concurrently.
type Pool struct {
	mu    sync.Mutex
	creds []*managedCredential
	next  int

	config PoolConfig

	globalWindowStart time.Time
	globalWindowCount int
	lastCallAt        time.Time
}

func NewPool(creds []Credential, config PoolConfig) *Pool {
	managed := make([]*managedCredential, len(creds))
	for i, cred := range creds {
		managed[i] = &managedCredential{cred: cred}
	}
	return &Pool{creds: managed, config: config}
}

// Acquire blocks until a credential is available under the budget, or until
// the configured maximum wait elapses (ErrPoolExhausted, retryable), or ctx
// is cancelled. Credentials are handed out round-robin, skipping any that are
// cooling down or over their window budget.
func (p *Pool) Acquire(ctx context.Context) (Credential, error) {
	if len(p.creds) == 0 {
		return Credential{}, ErrNoCredentials
	}

	deadline := time.Now().Add(p.config.AcquireMaxWait)

	for {
		p.mu.Lock()
		now := time.Now()
		if cred, ok := p.tryAcquireLocked(now); ok {
			p.mu.Unlock()
			return cred, nil
		}
		wait := p.timeUntilAvailableLocked(now)
		p.mu.Unlock()

		if now.Add(wait).After(deadline) {
			remaining := deadline.Sub(now)
			if remaining <= 0 {
				return Credential{}, fmt.Errorf("waited %s for a credential: %w", p.config.AcquireMaxWait, ErrPoolExhausted)
			}
			wait = remaining
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return Credential{}, ctx.Err()
		case <-timer.C:
		}

		if !time.Now().Before(deadline) {
			return Credential{}, fmt.Errorf("waited %s for a credential: %w", p.config.AcquireMaxWait, ErrPoolExhausted)
		}
	}
}

// Release records the outcome of a call made with the credential. A remote
// rate-limit signal is authoritative over the local budget estimate: the
// credential cools down exponentially with consecutive rejections.
func (p *Pool) Release(cred Credential, outcome Outcome) {
	p.mu.Lock()
	defer p.mu.Unlock()

	managed := p.findLocked(cred.Username)
	if managed == nil {
		return
	}

	switch outcome {
	case OutcomeSuccess:
		managed.consecutiveRateLimits = 0
		managed.consecutiveErrors = 0

	case OutcomeRateLimited:
		managed.consecutiveRateLimits++
		// Clamp the shift before applying it; a long rejection streak would
		// otherwise overflow the duration and produce a cooldown in the past.
		shift := managed.consecutiveRateLimits - 1
		if shift > maxRateLimitShift {
			shift = maxRateLimitShift
		}
		cooldown := rateLimitBaseCooldown << shift
		if cooldown > rateLimitMaxCooldown {
			cooldown = rateLimitMaxCooldown
		}
		managed.cooldownUntil = time.Now().Add(cooldown)
		slog.Warn("Credential rate limited, cooling down",
			"credential", managed.cred.Username,
			"consecutive", managed.consecutiveRateLimits,
			"cooldown", cooldown.String())

	case OutcomeError:
		managed.consecutiveErrors++
		if managed.consecutiveErrors >= errorCooldownAfter {
			managed.cooldownUntil = time.Now().Add(errorCooldown)
			slog.Warn("Credential cooling down after repeated errors",
				"credential", managed.cred.Username,
				"consecutive", managed.consecutiveErrors)
		}
	}
}

func (p *Pool) tryAcquireLocked(now time.Time) (Credential, bool) {
	if p.config.MinCallSpacing > 0 && !p.lastCallAt.IsZero() {
		if now.Sub(p.lastCallAt) < p.config.MinCallSpacing {
			return Credential{}, false
		}
	}

	if p.config.CallsPerMinute > 0 {
		if now.Sub(p.globalWindowStart) >= time.Minute {
			p.globalWindowStart = now
			p.globalWindowCount = 0
		}
		if p.globalWindowCount >= p.config.CallsPerMinute {
			return Credential{}, false
		}
	}

	for i := 0; i < len(p.creds); i++ {
		managed := p.creds[p.next]
		p.next = (p.next + 1) % len(p.creds)

		if !p.credentialAvailableLocked(managed, now) {
			continue
		}

		managed.windowCount++
		managed.totalCalls++
		p.globalWindowCount++
		p.lastCallAt = now
		return managed.cred, true
	}

	return Credential{}, false
}

func (p *Pool) credentialAvailableLocked(managed *managedCredential, now time.Time) bool {
	if now.Before(managed.cooldownUntil) {
		return false
	}

	if now.Sub(managed.windowStart) >= p.config.CredentialWindow {
		managed.windowStart = now
		managed.windowCount = 0
	}

	return managed.windowCount < p.config.CredentialBudget
}

// timeUntilAvailableLocked estimates when the earliest budget window reopens.
func (p *Pool) timeUntilAvailableLocked(now time.Time) time.Duration {
	var earliest time.Time

	consider := func(t time.Time) {
		if t.After(now) && (earliest.IsZero() || t.Before(earliest)) {
			earliest = t
		}
	}

	if p.config.MinCallSpacing > 0 && !p.lastCallAt.IsZero() {
		consider(p.lastCallAt.Add(p.config.MinCallSpacing))
	}
	if p.config.CallsPerMinute > 0 && p.globalWindowCount >= p.config.CallsPerMinute {
		consider(p.globalWindowStart.Add(time.Minute))
	}
	for _, managed := range p.creds {
		consider(managed.cooldownUntil)
		if managed.windowCount >= p.config.CredentialBudget {
			consider(managed.windowStart.Add(p.config.CredentialWindow))
		}
	}

	if earliest.IsZero() {
		return 10 * time.Millisecond
	}

	wait := earliest.Sub(now)
	if wait < 10*time.Millisecond {
		wait = 10 * time.Millisecond
	}
	return wait
}

func (p *Pool) findLocked(username string) *managedCredential {
	for _, managed := range p.creds {
		if managed.cred.Username == username {
			return managed
		}
	}
	return nil
}

type CredentialStatus struct {
	Username    string     `json:"username"`
	Available   bool       `json:"available"`
	WindowCalls int        `json:"window_calls"`
	TotalCalls  int64      `json:"total_calls"`
	InCooldown  bool       `json:"in_cooldown"`
	CooldownEnd *time.Time `json:"cooldown_end,omitempty"`
}

type PoolStatus struct {
	Credentials []CredentialStatus `json:"credentials"`
	Available   int                `json:"available"`
}

func (p *Pool) Status() PoolStatus {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	status := PoolStatus{Credentials: make([]CredentialStatus, 0, len(p.creds))}

	for _, managed := range p.creds {
		inCooldown := now.Before(managed.cooldownUntil)
		available := p.credentialAvailableLocked(managed, now)
		if available {
			status.Available++
		}

		cs := CredentialStatus{
			Username:    managed.cred.Username,
			Available:   available,
			WindowCalls: managed.windowCount,
			TotalCalls:  managed.totalCalls,
			InCooldown:  inCooldown,
		}
		if inCooldown {
			end := managed.cooldownUntil
			cs.CooldownEnd = &end
		}
		status.Credentials = append(status.Credentials, cs)
	}

	return status
}
