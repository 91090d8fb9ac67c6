package processor

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Memory keeps intents in process.  New intents start in
// requires_payment_method; SetStatus simulates the customer paying.
type Memory struct {
	mu          sync.Mutex
	intents     map[string]Intent
	idempotency map[string]string
	createErr   error
	creates     int
}

// NewMemory returns an empty Memory processor.
func NewMemory() *Memory {
	return &Memory{intents: map[string]Intent{}, idempotency: map[string]string{}}
}

func (m *Memory) CreateIntent(_ context.Context, p CreateParams) (Intent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return Intent{}, m.createErr
	}
	if id, ok := m.idempotency[p.IdempotencyKey]; ok && p.IdempotencyKey != "" {
		return m.intents[id], nil
	}
	m.creates++
	id := "pi_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	in := Intent{
		ID:           id,
		ClientSecret: id + "_secret_" + uuid.NewString()[:8],
		Status:       StatusRequiresPaymentMethod,
		Amount:       p.Amount,
		Currency:     strings.ToUpper(p.Currency),
		Metadata:     p.Metadata,
	}
	m.intents[id] = in
	if p.IdempotencyKey != "" {
		m.idempotency[p.IdempotencyKey] = id
	}
	return in, nil
}

func (m *Memory) GetIntent(_ context.Context, id string) (Intent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	in, ok := m.intents[id]
	if !ok {
		return Intent{}, ErrIntentNotFound
	}
	return in, nil
}

func (m *Memory) CancelIntent(_ context.Context, id string) (Intent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	in, ok := m.intents[id]
	if !ok {
		return Intent{}, ErrIntentNotFound
	}
	if !in.Cancelable() {
		return Intent{}, ErrNotCancelable
	}
	in.Status = StatusCanceled
	m.intents[id] = in
	return in, nil
}

// SetStatus changes the status of an existing intent.
func (m *Memory) SetStatus(id string, st Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	in, ok := m.intents[id]
	if !ok {
		return ErrIntentNotFound
	}
	in.Status = st
	m.intents[id] = in
	return nil
}

// FailCreates makes every following CreateIntent return err; nil resets.
func (m *Memory) FailCreates(err error) {
	m.mu.Lock()
	m.createErr = err
	m.mu.Unlock()
}

// Creates reports how many distinct intents were created.
func (m *Memory) Creates() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.creates
}
