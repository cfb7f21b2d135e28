// Package contextassembly implements the parallel context fetch and
// deterministic prompt composition for the two chat endpoints, per
// spec.md §4.I.
package contextassembly

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/suPer8Hu/chat-gateway/internal/history"
	"github.com/suPer8Hu/chat-gateway/internal/identity"
	"github.com/suPer8Hu/chat-gateway/internal/vectorstore"
)

// historyLimit is N in "latest N=5 AIChatRecords", per spec.md §4.I.
const historyLimit = 5

// messageLimit is "latest 15 messages", per spec.md §4.I.
const messageLimit = 15

var (
	ErrMessageNotFound   = errors.New("contextassembly: target message not found")
	ErrCannotReplyToSelf = errors.New("contextassembly: cannot reply to own message")
)

type Assembler struct {
	gateway vectorstore.Gateway
	history *history.Store
}

func New(gateway vectorstore.Gateway, historyStore *history.Store) *Assembler {
	return &Assembler{gateway: gateway, history: historyStore}
}

// Context is the fetched material a prompt is built from.
type Context struct {
	Room          *vectorstore.RoomAggregate
	User          *vectorstore.UserAggregate
	History       []vectorstore.AIChatRecord // oldest-first
	Messages      []vectorstore.Message      // newest-first
	TargetMessage *vectorstore.Message       // reply only
}

// Quality reports which context signals were available for this turn, per
// spec.md §6's `context` response object and §8's `hasRoomSummary`/
// `latestMessagesCount` scenario assertions.
type Quality struct {
	HasRoomSummary      bool
	HasUserProfile      bool
	HasPriorChats       bool
	LatestMessagesCount int
	Score               int // count of the three boolean signals present, 0-3
}

// Quality summarizes which context signals this assembly found.
func (c *Context) Quality() Quality {
	q := Quality{
		HasRoomSummary:      c.Room != nil && c.Room.Summary != "",
		HasUserProfile:      c.User != nil && c.User.PersonalizationSummary != "",
		HasPriorChats:       len(c.History) > 0,
		LatestMessagesCount: len(c.Messages),
	}
	for _, present := range []bool{q.HasRoomSummary, q.HasUserProfile, q.HasPriorChats} {
		if present {
			q.Score++
		}
	}
	return q
}

// ChatParams is the input to AssembleForChat.
type ChatParams struct {
	RoomID   string
	UserID   string
	Question string
}

// ReplyParams is the input to AssembleForReply.
type ReplyParams struct {
	RoomID           string
	SenderID         string
	TargetExternalID string
}

// AssembleForChat fetches room, user, AI-chat history, and recent messages
// in parallel, per spec.md §4.I.
func (a *Assembler) AssembleForChat(ctx context.Context, p ChatParams) (*Context, error) {
	c := &Context{}
	group, gctx := errgroup.WithContext(ctx)

	group.Go(func() error { return a.fetchRoom(gctx, p.RoomID, c) })
	group.Go(func() error { return a.fetchUser(gctx, p.UserID, c) })
	group.Go(func() error { return a.fetchHistory(gctx, p.UserID, p.RoomID, c) })
	group.Go(func() error { return a.fetchMessages(gctx, p.RoomID, c) })

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return c, nil
}

// AssembleForReply runs the same parallel fetch as AssembleForChat plus the
// target-message lookup, and enforces the two reply preconditions of
// spec.md §4.I: the target message must exist and must not belong to the
// replying sender.
func (a *Assembler) AssembleForReply(ctx context.Context, p ReplyParams) (*Context, error) {
	c := &Context{}
	group, gctx := errgroup.WithContext(ctx)

	group.Go(func() error { return a.fetchRoom(gctx, p.RoomID, c) })
	group.Go(func() error { return a.fetchUser(gctx, p.SenderID, c) })
	group.Go(func() error { return a.fetchMessages(gctx, p.RoomID, c) })
	group.Go(func() error { return a.fetchTarget(gctx, p.RoomID, p.TargetExternalID, c) })

	if err := group.Wait(); err != nil {
		return nil, err
	}

	if c.TargetMessage == nil {
		return nil, ErrMessageNotFound
	}
	if c.TargetMessage.SenderID == p.SenderID {
		return nil, ErrCannotReplyToSelf
	}
	return c, nil
}

func (a *Assembler) fetchRoom(ctx context.Context, roomID string, c *Context) error {
	points, err := a.gateway.Retrieve(ctx, vectorstore.CollectionRooms, []string{identity.RoomID(roomID)})
	if err != nil {
		return fmt.Errorf("contextassembly: fetch room: %w", err)
	}
	if len(points) > 0 {
		room := vectorstore.RoomAggregateFromPoint(points[0])
		c.Room = &room
	}
	return nil
}

func (a *Assembler) fetchUser(ctx context.Context, userID string, c *Context) error {
	if userID == "" {
		return nil
	}
	points, err := a.gateway.Retrieve(ctx, vectorstore.CollectionUsers, []string{identity.UserID(userID)})
	if err != nil {
		return fmt.Errorf("contextassembly: fetch user: %w", err)
	}
	if len(points) > 0 {
		user := vectorstore.UserAggregateFromPoint(points[0])
		c.User = &user
	}
	return nil
}

func (a *Assembler) fetchHistory(ctx context.Context, userID, roomID string, c *Context) error {
	records, err := a.history.Latest(ctx, userID, roomID, historyLimit)
	if err != nil {
		return fmt.Errorf("contextassembly: fetch history: %w", err)
	}
	// history.Latest returns newest-first; the prompt wants prior AI chats
	// oldest-first, per spec.md §4.I.
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	c.History = records
	return nil
}

func (a *Assembler) fetchMessages(ctx context.Context, roomID string, c *Context) error {
	filter := vectorstore.Filter{Equals: map[string]string{"roomId": roomID}}
	points, err := a.gateway.Scroll(ctx, vectorstore.CollectionMessages, &filter, messageLimit*4)
	if err != nil {
		return fmt.Errorf("contextassembly: fetch messages: %w", err)
	}
	messages := make([]vectorstore.Message, 0, len(points))
	for _, p := range points {
		messages = append(messages, vectorstore.MessageFromPoint(p))
	}
	sort.Slice(messages, func(i, j int) bool { return messages[i].CreatedAt.After(messages[j].CreatedAt) })
	if len(messages) > messageLimit {
		messages = messages[:messageLimit]
	}
	c.Messages = messages
	return nil
}

func (a *Assembler) fetchTarget(ctx context.Context, roomID, externalMessageID string, c *Context) error {
	filter := vectorstore.Filter{Equals: map[string]string{
		"roomId":            roomID,
		"externalMessageId": externalMessageID,
	}}
	points, err := a.gateway.Scroll(ctx, vectorstore.CollectionMessages, &filter, 1)
	if err != nil {
		return fmt.Errorf("contextassembly: fetch target message: %w", err)
	}
	if len(points) == 0 {
		return nil
	}
	msg := vectorstore.MessageFromPoint(points[0])
	c.TargetMessage = &msg
	return nil
}

// relativeTime renders a coarse "Nm ago"/"Nh ago"/"Nd ago" label, per
// spec.md §4.I's "relative-time labels" requirement for recent messages.
func relativeTime(t time.Time) string {
	if t.IsZero() {
		return "unknown time"
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

func nonEmpty(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
