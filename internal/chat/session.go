package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/abdul-hamid-achik/tally/internal/apperror"
	"github.com/abdul-hamid-achik/tally/internal/logger"
	"github.com/abdul-hamid-achik/tally/internal/metrics"
	"github.com/abdul-hamid-achik/tally/internal/tally/client"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

const (
	DefaultGreeting = "Hi! I am an AI assistant for transaction analytics. Ask me about your data, forecasts or recommendations."

	greetingID        = "1"
	errorPrefix       = "Error: "
	noResponseMessage = "Failed to get a response"
)

type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Asker answers a question about the current dataset.
type Asker interface {
	Chat(ctx context.Context, question string, history []client.ChatTurn) (string, error)
}

type Option func(*Session)

func WithGreeting(text string) Option {
	return func(s *Session) {
		if text != "" {
			s.greeting = text
		}
	}
}

// WithKeyPrefix namespaces persisted transcripts.
func WithKeyPrefix(prefix string) Option {
	return func(s *Session) {
		s.prefix = prefix
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

// Session is the transcript of one dataset. At most one question is in
// flight at a time.
type Session struct {
	asker    Asker
	store    Store
	greeting string
	prefix   string
	now      func() time.Time

	busy atomic.Bool

	mu        sync.Mutex
	datasetID string
	messages  []Message
	// generation changes on every dataset switch or clear so a reply to a
	// question asked before it is dropped.
	generation uint64
}

func NewSession(asker Asker, store Store, opts ...Option) *Session {
	s := &Session{
		asker:    asker,
		store:    store,
		greeting: DefaultGreeting,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = NewMemoryStore()
	}
	s.messages = s.seed()
	return s
}

func (s *Session) seed() []Message {
	return []Message{{
		ID:        greetingID,
		Role:      RoleAssistant,
		Content:   s.greeting,
		Timestamp: s.now(),
	}}
}

// Open switches the session to datasetID and restores its transcript. A
// missing or unreadable transcript starts over from the greeting. An empty
// dataset id starts a transcript that is never persisted.
func (s *Session) Open(ctx context.Context, datasetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.datasetID = datasetID
	s.generation++
	s.messages = s.seed()

	if datasetID == "" {
		return nil
	}

	log := logger.FromContext(ctx).With("dataset_id", datasetID)
	data, ok, err := s.store.Load(ctx, Key(s.prefix, datasetID))
	if err != nil {
		log.Warn("chat history unavailable", "error", err.Error())
		return fmt.Errorf("open chat history: %w", err)
	}
	if !ok {
		return nil
	}

	restored, err := decode(data)
	if err != nil {
		log.Warn("discarding corrupt chat history", "error", err.Error())
		return nil
	}
	s.messages = restored
	return nil
}

// DatasetID returns the dataset the session is scoped to.
func (s *Session) DatasetID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.datasetID
}

// Messages returns a copy of the transcript.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.messages...)
}

// Busy reports whether a question is awaiting its answer.
func (s *Session) Busy() bool {
	return s.busy.Load()
}

// Send appends text as a user message and asks the backend. A failed
// question is recorded as an assistant error message rather than returned.
// Send rejects blank text with ErrEmptyMessage and refuses to queue behind
// an outstanding question with ErrChatBusy.
func (s *Session) Send(ctx context.Context, text string) (Message, error) {
	if strings.TrimSpace(text) == "" {
		return Message{}, apperror.ErrEmptyMessage
	}
	if !s.busy.CompareAndSwap(false, true) {
		return Message{}, apperror.ErrChatBusy
	}
	defer s.busy.Store(false)

	s.mu.Lock()
	history := turns(s.messages)
	s.appendLocked(ctx, Message{
		ID:        uuid.NewString(),
		Role:      RoleUser,
		Content:   text,
		Timestamp: s.now(),
	})
	generation := s.generation
	s.mu.Unlock()

	start := time.Now()
	answer, err := s.asker.Chat(ctx, text, history)
	metrics.RecordChatTurn(err, time.Since(start))

	reply := Message{
		ID:        uuid.NewString(),
		Role:      RoleAssistant,
		Content:   answer,
		Timestamp: s.now(),
	}
	if err != nil {
		logger.FromContext(ctx).Warn("chat question failed", "error", err.Error())
		reply.Content = errorPrefix + failureText(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if generation != s.generation {
		logger.FromContext(ctx).Info("dropping reply for a replaced transcript")
		return reply, nil
	}
	s.appendLocked(ctx, reply)
	return reply, nil
}

// Clear resets the transcript to the greeting and forgets the persisted
// copy. Nothing happens unless confirm returns true.
func (s *Session) Clear(ctx context.Context, confirm func() bool) (bool, error) {
	if confirm == nil || !confirm() {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	s.messages = s.seed()
	if s.datasetID == "" {
		return true, nil
	}
	if err := s.store.Delete(ctx, Key(s.prefix, s.datasetID)); err != nil {
		return true, fmt.Errorf("clear chat history: %w", err)
	}
	return true, nil
}

func (s *Session) appendLocked(ctx context.Context, m Message) {
	s.messages = append(s.messages, m)
	if s.datasetID == "" {
		return
	}
	data, err := json.Marshal(s.messages)
	if err == nil {
		err = s.store.Save(ctx, Key(s.prefix, s.datasetID), data)
	}
	if err != nil {
		logger.FromContext(ctx).Warn("failed to persist chat history",
			"dataset_id", s.datasetID,
			"error", err.Error(),
		)
	}
}

func decode(data []byte) ([]Message, error) {
	var messages []Message
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, err
	}
	if len(messages) == 0 {
		return nil, errors.New("empty transcript")
	}
	for i, m := range messages {
		if m.Role != RoleUser && m.Role != RoleAssistant {
			return nil, fmt.Errorf("message %d: unknown role %q", i, m.Role)
		}
	}
	return messages, nil
}

func turns(messages []Message) []client.ChatTurn {
	out := make([]client.ChatTurn, 0, len(messages))
	for _, m := range messages {
		out = append(out, client.ChatTurn{Role: string(m.Role), Content: m.Content})
	}
	return out
}

func failureText(err error) string {
	var appErr *apperror.Error
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return noResponseMessage
}
