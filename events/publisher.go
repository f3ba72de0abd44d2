// Package events announces post lifecycle changes to other services.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/cppla/bloglist/models"
)

// Event kinds, appended to the subject prefix.
const (
	PostCreated = "created"
	PostUpdated = "updated"
	PostDeleted = "deleted"
)

// PostEvent is the JSON payload published for every post change.
type PostEvent struct {
	Kind      string `json:"kind"`
	PostID    string `json:"postId"`
	OwnerID   string `json:"ownerId"`
	Title     string `json:"title,omitempty"`
	Author    string `json:"author,omitempty"`
	URL       string `json:"url,omitempty"`
	Likes     int    `json:"likes"`
	Timestamp string `json:"timestamp"`
}

// NewPostEvent builds the payload for kind from post.
func NewPostEvent(kind string, post models.Post) PostEvent {
	return PostEvent{
		Kind:      kind,
		PostID:    post.ID,
		OwnerID:   post.OwnerID,
		Title:     post.Title,
		Author:    post.Author,
		URL:       post.URL,
		Likes:     post.Likes,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// Publisher delivers post events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, event PostEvent) error
	Close()
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, PostEvent) error { return nil }
func (Nop) Close()                                   {}

// NATSPublisher publishes events on "<prefix>.<kind>".
type NATSPublisher struct {
	conn   *nats.Conn
	prefix string
}

// Connect dials url and returns a NATS backed publisher. An empty url yields Nop.
func Connect(url, prefix string) (Publisher, error) {
	if url == "" {
		return Nop{}, nil
	}
	conn, err := nats.Connect(url,
		nats.Name("bloglist"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", url, err)
	}
	return NewNATSPublisher(conn, prefix), nil
}

// NewNATSPublisher wraps an established connection.
func NewNATSPublisher(conn *nats.Conn, prefix string) *NATSPublisher {
	return &NATSPublisher{conn: conn, prefix: prefix}
}

// Subject returns the subject an event of kind is published on.
func (p *NATSPublisher) Subject(kind string) string {
	return p.prefix + "." + kind
}

func (p *NATSPublisher) Publish(ctx context.Context, event PostEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", event.Kind, err)
	}
	if err := p.conn.Publish(p.Subject(event.Kind), payload); err != nil {
		return fmt.Errorf("publish %s event: %w", event.Kind, err)
	}
	return nil
}

// Close flushes pending messages and closes the connection.
func (p *NATSPublisher) Close() {
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
	}
}
