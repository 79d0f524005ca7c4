/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package webhook

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/go-github/v84/github"
)

// Kind is the GitHub event name carried in the X-GitHub-Event header.
type Kind string

const (
	KindPing                     Kind = "ping"
	KindIssueComment             Kind = "issue_comment"
	KindPullRequestReviewComment Kind = "pull_request_review_comment"
)

// Action is the payload's "action" field.
type Action string

const (
	// ActionAny registers a handler for every action of a kind.
	ActionAny     Action = ""
	ActionCreated Action = "created"
	ActionEdited  Action = "edited"
	ActionDeleted Action = "deleted"
)

// Event is a single verified delivery.
type Event struct {
	Kind       Kind
	Action     Action
	DeliveryID string
	// Payload is the raw JSON body.
	Payload []byte
	// Parsed is the go-github type for Kind, e.g. *github.IssueCommentEvent.
	Parsed any
}

// ParseEvent decodes payload as an event of the given kind. Kinds go-github
// does not model are kept with a nil Parsed.
func ParseEvent(kind Kind, deliveryID string, payload []byte) (Event, error) {
	var envelope struct {
		Action string `json:"action"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return Event{}, fmt.Errorf("decoding %s payload: %w", kind, err)
	}

	ev := Event{
		Kind:       kind,
		Action:     Action(envelope.Action),
		DeliveryID: deliveryID,
		Payload:    payload,
	}
	if github.EventForType(string(kind)) == nil {
		return ev, nil
	}

	parsed, err := github.ParseWebHook(string(kind), payload)
	if err != nil {
		return Event{}, fmt.Errorf("parsing %s payload: %w", kind, err)
	}
	ev.Parsed = parsed
	return ev, nil
}

// CommentPayload is the part of a comment event the bot acts on.
type CommentPayload struct {
	Body        string
	AuthorLogin string
	// CommentsURL is where replies to the conversation are posted.
	CommentsURL string
	Number      int
	Owner       string
	Repo        string
}

// RepositoryFullName returns "owner/repo".
func (c CommentPayload) RepositoryFullName() string {
	return c.Owner + "/" + c.Repo
}

// Comment extracts the CommentPayload from an issue comment or pull request
// review comment event.
func (e Event) Comment() (CommentPayload, error) {
	var c CommentPayload
	switch p := e.Parsed.(type) {
	case *github.IssueCommentEvent:
		c = CommentPayload{
			Body:        p.GetComment().GetBody(),
			AuthorLogin: p.GetComment().GetUser().GetLogin(),
			CommentsURL: p.GetIssue().GetCommentsURL(),
			Number:      p.GetIssue().GetNumber(),
			Owner:       p.GetRepo().GetOwner().GetLogin(),
			Repo:        p.GetRepo().GetName(),
		}
	case *github.PullRequestReviewCommentEvent:
		c = CommentPayload{
			Body:        p.GetComment().GetBody(),
			AuthorLogin: p.GetComment().GetUser().GetLogin(),
			CommentsURL: p.GetPullRequest().GetCommentsURL(),
			Number:      p.GetPullRequest().GetNumber(),
			Owner:       p.GetRepo().GetOwner().GetLogin(),
			Repo:        p.GetRepo().GetName(),
		}
	default:
		return CommentPayload{}, fmt.Errorf("%s event carries no comment", e.Kind)
	}

	switch {
	case c.Owner == "" || c.Repo == "":
		return CommentPayload{}, errors.New("comment event has no repository")
	case c.Number == 0:
		return CommentPayload{}, errors.New("comment event has no issue or pull request number")
	case c.CommentsURL == "":
		return CommentPayload{}, errors.New("comment event has no comments url")
	}
	return c, nil
}
