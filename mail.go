package authgate

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"strings"
	"sync"
)

// NoOpMailer discards all mail. It is the default when no [Mailer] is
// injected.
type NoOpMailer struct{}

func (NoOpMailer) SendVerification(context.Context, string, string) error { return nil }

func (NoOpMailer) SendPasswordReset(context.Context, string, string) error { return nil }

// JSONWriterMailer writes one JSON line per outbound mail, for development
// setups without a delivery backend.
type JSONWriterMailer struct {
	writer io.Writer
	mu     sync.Mutex
}

func NewJSONWriterMailer(w io.Writer) *JSONWriterMailer {
	return &JSONWriterMailer{writer: w}
}

type mailLine struct {
	Kind  string `json:"kind"`
	Email string `json:"email"`
	Link  string `json:"link"`
}

func (m *JSONWriterMailer) SendVerification(_ context.Context, email, link string) error {
	return m.write(mailLine{Kind: "verification", Email: email, Link: link})
}

func (m *JSONWriterMailer) SendPasswordReset(_ context.Context, email, link string) error {
	return m.write(mailLine{Kind: "password_reset", Email: email, Link: link})
}

func (m *JSONWriterMailer) write(line mailLine) error {
	if m == nil || m.writer == nil {
		return nil
	}
	data, err := json.Marshal(line)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.writer.Write(data); err != nil {
		return err
	}
	_, err = m.writer.Write([]byte("\n"))
	return err
}

// verificationLink and resetLink compose the URLs handed to the Mailer.
func (e *Engine) verificationLink(tok string) string {
	return joinLink(e.config.Mail.BaseURL, "/verify-email?token=", tok)
}

func (e *Engine) resetLink(tok string) string {
	return joinLink(e.config.Mail.BaseURL, "/reset-password?token=", tok)
}

func joinLink(base, path, tok string) string {
	return strings.TrimSuffix(base, "/") + path + tok
}

// Mail delivery is best-effort: failures are logged, never surfaced to the
// caller of the flow that triggered them.
func (e *Engine) logMailFailure(kind string, err error) {
	log.Printf("authgate: send %s mail: %v", kind, err)
}
