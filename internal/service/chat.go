package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/homeheaven/internal/model"
	"github.com/and161185/homeheaven/internal/session"
)

// ChatAPI is the remote AI assistant.
type ChatAPI interface {
	Chat(ctx context.Context, token string, listingID int64, message string) (string, error)
}

// Reader is the snapshot side of the session store.
type Reader interface {
	CurrentSession() session.Session
}

// Conversation is the AI chat transcript for one listing. Safe for concurrent use.
type Conversation struct {
	mu        sync.Mutex
	api       ChatAPI
	sessions  Reader
	listingID int64
	entries   []model.ChatEntry
	now       func() time.Time
	log       *zap.Logger
}

// ConversationOption configures a Conversation.
type ConversationOption func(*Conversation)

// WithChatClock replaces the timestamp source.
func WithChatClock(now func() time.Time) ConversationOption {
	return func(c *Conversation) { c.now = now }
}

// WithChatLogger sets the logger.
func WithChatLogger(l *zap.Logger) ConversationOption {
	return func(c *Conversation) { c.log = l }
}

// NewConversation starts an empty transcript about listingID.
func NewConversation(a ChatAPI, sessions Reader, listingID int64, opts ...ConversationOption) *Conversation {
	c := &Conversation{
		api:       a,
		sessions:  sessions,
		listingID: listingID,
		now:       time.Now,
		log:       zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Send appends the user's message, asks the assistant and appends its reply. A failed
// exchange appends an "Error: ..." entry from the assistant and returns the error.
// Blank messages are ignored. It returns the entries appended by this call.
func (c *Conversation) Send(ctx context.Context, text string) ([]model.ChatEntry, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	user := c.append(model.ChatEntry{Text: text, Sender: model.SenderUser})

	reply, err := c.api.Chat(ctx, c.sessions.CurrentSession().Credential, c.listingID, text)
	if err != nil {
		c.log.Warn("chat failed", zap.Int64("listing_id", c.listingID), zap.Error(err))
		ai := c.append(model.ChatEntry{Text: "Error: " + failureMessage(err), Sender: model.SenderAI, Failed: true})
		return []model.ChatEntry{user, ai}, err
	}
	ai := c.append(model.ChatEntry{Text: reply, Sender: model.SenderAI})
	return []model.ChatEntry{user, ai}, nil
}

// Entries returns a copy of the transcript in order.
func (c *Conversation) Entries() []model.ChatEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.ChatEntry(nil), c.entries...)
}

// ListingID returns the listing this conversation is about.
func (c *Conversation) ListingID() int64 { return c.listingID }

func (c *Conversation) append(e model.ChatEntry) model.ChatEntry {
	e.ID = uuid.Must(uuid.NewV4()).String()
	e.Timestamp = c.now()
	c.mu.Lock()
	c.entries = append(c.entries, e)
	c.mu.Unlock()
	return e
}
