package tokens

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"memorybook-backend/internal/models"
)

// DefaultTTLDays is how long a capability link stays redeemable.
const DefaultTTLDays = 7

var (
	// ErrUnknownToken is returned when an operation references a token
	// that was never issued.
	ErrUnknownToken = errors.New("tokens: unknown token")
	// ErrAlreadyUsed is returned by MarkUsed when another caller already
	// consumed the token.
	ErrAlreadyUsed = errors.New("tokens: already used")
)

// Reason says why a token failed validation. Exactly one reason is
// reported, in strict precedence order: not_found > deleted >
// already_used > expired, so a deleted-and-used token always reports
// deleted.
type Reason string

const (
	ReasonNotFound    Reason = "not_found"
	ReasonDeleted     Reason = "deleted"
	ReasonAlreadyUsed Reason = "already_used"
	ReasonExpired     Reason = "expired"
)

// Validation is the outcome of validating one token. Reason is set only
// when Valid is false; Token is set whenever the record exists.
type Validation struct {
	Valid  bool
	Reason Reason
	Token  *models.TokenRecord
}

// Manager owns the token lifecycle. Every operation runs a full
// load-mutate-replace cycle against the store; one mutex serializes
// them so no update is lost and MarkUsed consumes a token exactly once.
type Manager struct {
	mu    sync.Mutex
	store Store
	now   func() time.Time
}

func NewManager(store Store) *Manager {
	return &Manager{store: store, now: time.Now}
}

// Create issues a fresh token for a customer. ttlDays <= 0 falls back
// to DefaultTTLDays. Uniqueness rests on the 128 bits of entropy, not
// on a collision check.
func (m *Manager) Create(customerName string, ttlDays int) (models.TokenRecord, error) {
	if ttlDays <= 0 {
		ttlDays = DefaultTTLDays
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	records, err := m.store.Load()
	if err != nil {
		return models.TokenRecord{}, err
	}

	token, err := generateToken()
	if err != nil {
		return models.TokenRecord{}, err
	}

	now := m.now()
	rec := models.TokenRecord{
		Token:        token,
		CustomerName: customerName,
		CreatedAt:    now,
		ExpiresAt:    now.Add(time.Duration(ttlDays) * 24 * time.Hour),
	}

	records = append(records, rec)
	if err := m.store.Replace(records); err != nil {
		return models.TokenRecord{}, err
	}
	return rec, nil
}

// SetShareMetadata stores the shareable link and the pre-rendered
// invitation message on an issued token, for later admin reference.
func (m *Manager) SetShareMetadata(token, link, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	records, err := m.store.Load()
	if err != nil {
		return err
	}

	rec := findToken(records, token)
	if rec == nil {
		return fmt.Errorf("set metadata for %q: %w", token, ErrUnknownToken)
	}
	rec.Link = link
	rec.WhatsappMessage = message
	return m.store.Replace(records)
}

// Validate reports whether a token may still be redeemed. It never
// fails on a bad token, only on store errors; every rejection carries a
// reason code so callers can render distinct messages.
func (m *Manager) Validate(token string) (Validation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	records, err := m.store.Load()
	if err != nil {
		return Validation{}, err
	}

	rec := findToken(records, token)
	switch {
	case rec == nil:
		return Validation{Reason: ReasonNotFound}, nil
	case rec.Deleted:
		return Validation{Reason: ReasonDeleted, Token: rec}, nil
	case rec.Used:
		return Validation{Reason: ReasonAlreadyUsed, Token: rec}, nil
	case rec.Expired(m.now()):
		return Validation{Reason: ReasonExpired, Token: rec}, nil
	}
	return Validation{Valid: true, Token: rec}, nil
}

// MarkUsed consumes the token and binds it to an order id. Exactly one
// caller can win the false→true transition; losers get ErrAlreadyUsed
// and never rebind the order id. Returns false without error when the
// token is unknown.
func (m *Manager) MarkUsed(token, orderID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	records, err := m.store.Load()
	if err != nil {
		return false, err
	}

	rec := findToken(records, token)
	if rec == nil {
		return false, nil
	}
	if rec.Used {
		return false, fmt.Errorf("mark %q: %w", token, ErrAlreadyUsed)
	}

	now := m.now()
	rec.Used = true
	rec.UsedAt = &now
	rec.OrderID = &orderID
	if err := m.store.Replace(records); err != nil {
		return false, err
	}
	return true, nil
}

// Delete soft-revokes a token. Idempotent; returns false only when the
// token is unknown. The record is never physically removed, and a used
// token keeps its used flag alongside deleted.
func (m *Manager) Delete(token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	records, err := m.store.Load()
	if err != nil {
		return false, err
	}

	rec := findToken(records, token)
	if rec == nil {
		return false, nil
	}
	if !rec.Deleted {
		now := m.now()
		rec.Deleted = true
		rec.DeletedAt = &now
		if err := m.store.Replace(records); err != nil {
			return false, err
		}
	}
	return true, nil
}

// All returns every token ever issued, for the admin panel. No
// filtering; revoked and consumed tokens are part of the history.
func (m *Manager) All() ([]models.TokenRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.store.Load()
}

func findToken(records []models.TokenRecord, token string) *models.TokenRecord {
	for i := range records {
		if records[i].Token == token {
			return &records[i]
		}
	}
	return nil
}

// generateToken returns 16 cryptographically random bytes, hex-encoded.
func generateToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
