// Package flash keeps one-shot user-visible messages in server-side session
// state, shown on the next rendered page.
package flash

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/google/uuid"
)

// Message categories.
const (
	Success = "success"
	Error   = "error"
	Info    = "info"
)

// CookieName is the cookie carrying the flash session id.
const CookieName = "sharebite_flash"

const sessionKey = "flashes"

// Message is a single flash message.
type Message struct {
	Category string `json:"category"`
	Text     string `json:"text"`
}

// Store reads and writes flash messages.
type Store struct {
	sessions *session.Store
}

// New creates a Store. A nil storage keeps sessions in process memory.
func New(storage fiber.Storage, ttl time.Duration, secure bool) *Store {
	cfg := session.Config{
		Expiration:     ttl,
		KeyLookup:      "cookie:" + CookieName,
		CookieHTTPOnly: true,
		CookieSameSite: "Lax",
		CookieSecure:   secure,
		KeyGenerator:   uuid.NewString,
	}
	if storage != nil {
		cfg.Storage = storage
	}
	return &Store{sessions: session.New(cfg)}
}

// Add appends a message to the visitor's flash queue.
func (s *Store) Add(c *fiber.Ctx, category, text string) error {
	sess, err := s.sessions.Get(c)
	if err != nil {
		return fmt.Errorf("failed to load flash session: %w", err)
	}

	messages := decode(sess.Get(sessionKey))
	messages = append(messages, Message{Category: category, Text: text})
	raw, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("failed to encode flash messages: %w", err)
	}
	sess.Set(sessionKey, string(raw))

	if err := sess.Save(); err != nil {
		return fmt.Errorf("failed to save flash session: %w", err)
	}
	return nil
}

// Pop returns and removes all pending messages.
func (s *Store) Pop(c *fiber.Ctx) ([]Message, error) {
	sess, err := s.sessions.Get(c)
	if err != nil {
		return nil, fmt.Errorf("failed to load flash session: %w", err)
	}

	messages := decode(sess.Get(sessionKey))
	if len(messages) == 0 {
		return nil, nil
	}
	sess.Delete(sessionKey)
	if err := sess.Save(); err != nil {
		return nil, fmt.Errorf("failed to save flash session: %w", err)
	}
	return messages, nil
}

// Reset discards the visitor's flash session entirely.
func (s *Store) Reset(c *fiber.Ctx) error {
	sess, err := s.sessions.Get(c)
	if err != nil {
		return fmt.Errorf("failed to load flash session: %w", err)
	}
	return sess.Destroy()
}

func decode(v interface{}) []Message {
	raw, ok := v.(string)
	if !ok || raw == "" {
		return nil
	}
	var messages []Message
	if err := json.Unmarshal([]byte(raw), &messages); err != nil {
		return nil
	}
	return messages
}
