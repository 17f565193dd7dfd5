// Package events publishes activity records for downstream consumers
// (e.g. a notification service) whenever a post, comment or follow
// edge is mutated.
package events

import (
	"context"
	"time"
)

const TopicActivity = "yatube.activity"

const (
	PostCreated    = "post.created"
	PostEdited     = "post.edited"
	CommentCreated = "comment.created"
	FollowCreated  = "follow.created"
	FollowDeleted  = "follow.deleted"
)

type Event struct {
	Kind       string    `json:"kind"`
	Actor      string    `json:"actor"`
	Subject    string    `json:"subject,omitempty"`
	PostID     uint      `json:"post_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Discard drops every event. Used when no broker is configured and in
// tests.
type Discard struct{}

func (Discard) Publish(context.Context, Event) error { return nil }
func (Discard) Close() error                         { return nil }
