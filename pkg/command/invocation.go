package command

import (
	"context"
	"fmt"
	"strconv"
	"sync"
)

// Message is outgoing reply content. Embeds are passed through to the
// transport untouched.
type Message struct {
	Content string
	Embeds  []any
}

type MessageRef struct {
	ID        string
	ChannelID string
}

// Replier delivers replies for an invocation.
type Replier interface {
	// EditOriginal replaces the placeholder acknowledgement content.
	EditOriginal(ctx context.Context, token string, msg Message) (MessageRef, error)
	// Send posts a new message to a channel.
	Send(ctx context.Context, channelID string, msg Message) (MessageRef, error)
}

type CommandRef struct {
	ID   string
	Name string
}

// InvocationParams carries the routed view of an interaction.
type InvocationParams struct {
	ID          string
	Token       string
	Command     CommandRef
	Args        []string
	Subcommands []string
	GuildID     string
	ChannelID   string
	UserID      string
	Guild       any
	Channel     any
	Member      any
	TraceID     string
}

// Invocation is what a leaf handler receives.
type Invocation struct {
	ID          string
	Command     CommandRef
	Args        []string
	Subcommands []string
	GuildID     string
	ChannelID   string
	UserID      string
	// Guild, Channel and Member are the transport's resolved entities.
	Guild   any
	Channel any
	Member  any
	TraceID string

	token   string
	replier Replier

	mu        sync.Mutex
	responded bool
}

func NewInvocation(p InvocationParams, replier Replier) *Invocation {
	return &Invocation{
		ID:          p.ID,
		Command:     p.Command,
		Args:        p.Args,
		Subcommands: p.Subcommands,
		GuildID:     p.GuildID,
		ChannelID:   p.ChannelID,
		UserID:      p.UserID,
		Guild:       p.Guild,
		Channel:     p.Channel,
		Member:      p.Member,
		TraceID:     p.TraceID,
		token:       p.Token,
		replier:     replier,
	}
}

// Say replies to the invocation. The first call replaces the acknowledgement
// placeholder, later calls send new messages to the invocation's channel.
func (inv *Invocation) Say(ctx context.Context, content string, embeds ...any) (MessageRef, error) {
	if inv.replier == nil {
		return MessageRef{}, fmt.Errorf("invocation %s has no replier", inv.ID)
	}

	inv.mu.Lock()
	defer inv.mu.Unlock()

	msg := Message{Content: content, Embeds: embeds}
	if !inv.responded {
		inv.responded = true
		ref, err := inv.replier.EditOriginal(ctx, inv.token, msg)
		if err != nil {
			return MessageRef{}, fmt.Errorf("failed to edit original response: %w", err)
		}
		return ref, nil
	}

	ref, err := inv.replier.Send(ctx, inv.ChannelID, msg)
	if err != nil {
		return MessageRef{}, fmt.Errorf("failed to send message: %w", err)
	}
	return ref, nil
}

// Responded reports whether Say has been called.
func (inv *Invocation) Responded() bool {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return inv.responded
}

// Arg returns the i-th argument value, or "" when absent.
func (inv *Invocation) Arg(i int) string {
	if i < 0 || i >= len(inv.Args) {
		return ""
	}
	return inv.Args[i]
}

func (inv *Invocation) ArgInt(i int) (int64, error) {
	v := inv.Arg(i)
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("argument %d: %w", i, err)
	}
	return n, nil
}

func (inv *Invocation) ArgBool(i int) (bool, error) {
	v := inv.Arg(i)
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("argument %d: %w", i, err)
	}
	return b, nil
}
