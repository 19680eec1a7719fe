package testutil

import (
	"context"
	"sync"

	"tourbook_backend/internal/email"
)

// Mailer запоминает отправленные письма вместо доставки
type Mailer struct {
	mu   sync.Mutex
	sent []*email.Message

	// Err, если задан, возвращается из Send
	Err error
}

var _ email.Provider = (*Mailer)(nil)

func (m *Mailer) Send(_ context.Context, msg *email.Message) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

func (m *Mailer) Validate() error { return nil }

func (m *Mailer) Sent() []*email.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*email.Message(nil), m.sent...)
}

// Last - последнее отправленное письмо или nil
func (m *Mailer) Last() *email.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return nil
	}
	return m.sent[len(m.sent)-1]
}
