package lifeback

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// SessionIDProvider names a viewer session. The ID tags log lines, SSE
// streams and patterns saved to a shared store.
type SessionIDProvider interface {
	SessionID() (string, error)
}

// StaticSessionID always returns the same ID.
type StaticSessionID string

func (s StaticSessionID) SessionID() (string, error) {
	if strings.TrimSpace(string(s)) == "" {
		return "", fmt.Errorf("empty session id")
	}
	return string(s), nil
}

// DefaultSessionIDProvider builds IDs from the host name and a uuid suffix.
type DefaultSessionIDProvider struct {
	prefix    string
	addSuffix bool

	once sync.Once
	id   string
	err  error
}

// SessionIDOption mutates DefaultSessionIDProvider construction.
type SessionIDOption func(*DefaultSessionIDProvider)

// WithSessionPrefix puts prefix in front of the host part.
func WithSessionPrefix(prefix string) SessionIDOption {
	return func(p *DefaultSessionIDProvider) {
		p.prefix = prefix
	}
}

// WithoutSessionSuffix drops the uuid suffix.
func WithoutSessionSuffix() SessionIDOption {
	return func(p *DefaultSessionIDProvider) {
		p.addSuffix = false
	}
}

func NewDefaultSessionIDProvider(opts ...SessionIDOption) *DefaultSessionIDProvider {
	p := &DefaultSessionIDProvider{addSuffix: true}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SessionID returns an ID that is stable for the process lifetime.
func (p *DefaultSessionIDProvider) SessionID() (string, error) {
	p.once.Do(func() {
		host := firstNonEmpty(os.Getenv("HOSTNAME"), readHostname())
		parts := []string{}
		if p.prefix != "" {
			parts = append(parts, sanitize(p.prefix))
		}
		if host != "" {
			parts = append(parts, sanitize(host))
		}
		if p.addSuffix {
			parts = append(parts, uuid.NewString()[:8])
		}
		if len(parts) == 0 {
			p.err = fmt.Errorf("no hostname, prefix or suffix available for session id")
			return
		}
		p.id = strings.Join(parts, "-")
	})
	return p.id, p.err
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func readHostname() string {
	h, _ := os.Hostname()
	return h
}

func sanitize(s string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", "-"))
}
