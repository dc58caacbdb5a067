package processor

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"ig-comment-dm/internal/notify"
	"ig-comment-dm/internal/types"
)

var (
	ErrMissingRecipient = errors.New("comment has no sender id")
	ErrNoMatch          = errors.New("comment text matches no trigger")
)

type Reply struct {
	RecipientID string
	Trigger     string
	Message     string
}

// Resolve maps a comment to the reply it should receive. It is a pure
// function of rules and v.
func Resolve(rules types.ReplyRules, v types.CommentValue) (Reply, error) {
	userID := v.SenderID()
	if userID == "" {
		return Reply{}, ErrMissingRecipient
	}
	msg, ok := rules.Lookup(v.Text)
	if !ok {
		return Reply{}, ErrNoMatch
	}
	return Reply{RecipientID: userID, Trigger: strings.TrimSpace(v.Text), Message: msg}, nil
}

type Notifier interface {
	Notify(ctx context.Context, recipientID, message string) notify.Outcome
}

// Deduper claims a key once per ttl; store.RedisStore satisfies it.
type Deduper interface {
	AcquireOnce(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

type CommentProcessor struct {
	rules    types.ReplyRules
	notifier Notifier
	idem     Deduper
	idemTTL  time.Duration
	log      logrus.FieldLogger
}

func NewCommentProcessor(rules types.ReplyRules, n Notifier, log logrus.FieldLogger) *CommentProcessor {
	return &CommentProcessor{rules: rules, notifier: n, log: log}
}

// WithDeduper enables skipping comments whose id was already handled within ttl.
func (p *CommentProcessor) WithDeduper(d Deduper, ttl time.Duration) *CommentProcessor {
	p.idem = d
	p.idemTTL = ttl
	return p
}

// Process handles one comment event. Unmatched text and missing senders are
// not errors; the returned outcome is notify.OutcomeSkipped for them.
func (p *CommentProcessor) Process(ctx context.Context, v types.CommentValue) notify.Outcome {
	lg := p.log.WithFields(logrus.Fields{
		"comment_id": v.CommentID,
		"from":       v.SenderID(),
	})
	lg.WithField("text", v.Text).Info("handling comment event")

	reply, err := Resolve(p.rules, v)
	switch {
	case errors.Is(err, ErrMissingRecipient):
		lg.Warn("comment without sender id, no reply possible")
		return notify.OutcomeSkipped
	case errors.Is(err, ErrNoMatch):
		lg.Debug("comment text matches no trigger, ignoring")
		return notify.OutcomeSkipped
	}

	if p.idem != nil && v.CommentID != "" {
		ok, err := p.idem.AcquireOnce(ctx, "idem:comment:"+v.CommentID, p.idemTTL)
		switch {
		case err != nil:
			lg.WithError(err).Warn("dedup check failed, continuing")
		case !ok:
			lg.Info("duplicate comment event, already handled")
			return notify.OutcomeSkipped
		}
	}

	lg.WithField("trigger", reply.Trigger).Debug("reply resolved")
	return p.notifier.Notify(ctx, reply.RecipientID, reply.Message)
}
