package pairing

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Manager holds outstanding pairing codes and issues/validates tokens
// against a host's secret. One Manager per host pipeline instance.
// Grounded on moonlight/handlers.go's MoonlightServer.pairingPINs map
// and validatePairingPin, generalized from a single in-process map
// lookup into a dedicated type with an expiry sweeper.
type Manager struct {
	mu      sync.Mutex
	secret  []byte
	hostID  string
	codes   map[string]*Code // keyed by normalized code value
	logger  zerolog.Logger
	sched   gocron.Scheduler
}

// NewManager constructs a Manager for hostID using secret as the HMAC
// key for tokens it issues.
func NewManager(secret []byte, hostID string) (*Manager, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("pairing: create scheduler: %w", err)
	}
	m := &Manager{
		secret: secret,
		hostID: hostID,
		codes:  make(map[string]*Code),
		logger: log.With().Str("component", "pairing").Logger(),
		sched:  sched,
	}
	if _, err := sched.NewJob(
		gocron.DurationJob(30*time.Second),
		gocron.NewTask(m.sweepExpired),
	); err != nil {
		return nil, fmt.Errorf("pairing: schedule expiry sweep: %w", err)
	}
	sched.Start()
	return m, nil
}

// Close stops the expiry sweeper.
func (m *Manager) Close() error {
	return m.sched.Shutdown()
}

// NewCode generates and registers a new outstanding pairing code.
func (m *Manager) NewCode(ttl time.Duration) (*Code, error) {
	code, err := GenerateCode(m.hostID, ttl)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.codes[normalize(code.Value)] = code
	m.mu.Unlock()
	m.logger.Info().Str("code", code.Value).Msg("generated pairing code")
	return code, nil
}

// Redeem validates candidateCode (viewer-supplied, any casing/dash
// form) and, if valid and unused, marks it used and issues an
// AuthToken for viewerID. Mirrors validatePairingPin's
// exists -> expired -> used check order.
func (m *Manager) Redeem(candidateCode, viewerID string) (AuthToken, error) {
	m.mu.Lock()
	code, exists := m.codes[normalize(candidateCode)]
	if !exists {
		m.mu.Unlock()
		return AuthToken{}, fmt.Errorf("pairing: no outstanding code matches")
	}
	if code.Expired() {
		delete(m.codes, normalize(candidateCode))
		m.mu.Unlock()
		return AuthToken{}, fmt.Errorf("pairing: code expired")
	}
	if code.Used() {
		m.mu.Unlock()
		return AuthToken{}, fmt.Errorf("pairing: code already used")
	}
	code.MarkUsed()
	delete(m.codes, normalize(candidateCode))
	m.mu.Unlock()

	token, err := IssueToken(m.secret, m.hostID, viewerID)
	if err != nil {
		return AuthToken{}, fmt.Errorf("pairing: issue token: %w", err)
	}
	m.logger.Info().Str("viewer_id", viewerID).Msg("pairing code redeemed")
	return token, nil
}

// ValidateToken checks t against this manager's secret and host id.
func (m *Manager) ValidateToken(t AuthToken) ValidationResult {
	return t.Validate(m.secret, m.hostID)
}

// sweepExpired deletes outstanding codes past their expiry, run
// periodically by the gocron scheduler so an abandoned code's memory
// doesn't linger indefinitely.
func (m *Manager) sweepExpired() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, c := range m.codes {
		if c.Expired() {
			delete(m.codes, k)
		}
	}
}
