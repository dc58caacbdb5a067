package notify

import (
	"context"

	"github.com/sirupsen/logrus"

	"ig-comment-dm/internal/config"
	"ig-comment-dm/internal/ig"
)

type Outcome int

const (
	OutcomeSent Outcome = iota
	OutcomeSkipped
	OutcomeThrottled
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSent:
		return "sent"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeThrottled:
		return "throttled"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MessageSender is the outbound messaging API.
type MessageSender interface {
	SendMessage(ctx context.Context, recipientIGUserID, text string) (*ig.SendResult, error)
}

// Limiter gates outbound DMs per business account; rate.Limiter satisfies it.
type Limiter interface {
	Enabled() bool
	CheckAndIncr(ctx context.Context, accountID, action string) (bool, int64, int64, error)
}

type DMNotifier struct {
	sender      MessageSender
	accessToken string
	businessID  string
	limiter     Limiter
	log         logrus.FieldLogger
}

type Option func(*DMNotifier)

func WithLimiter(l Limiter) Option {
	return func(n *DMNotifier) { n.limiter = l }
}

func NewDMNotifier(sender MessageSender, accessToken, businessID string, log logrus.FieldLogger, opts ...Option) *DMNotifier {
	n := &DMNotifier{
		sender:      sender,
		accessToken: accessToken,
		businessID:  businessID,
		log:         log,
	}
	for _, o := range opts {
		o(n)
	}
	return n
}

// Notify makes at most one delivery attempt. Failures are logged, never returned.
func (n *DMNotifier) Notify(ctx context.Context, recipientID, message string) Outcome {
	lg := n.log.WithField("recipient", recipientID)
	lg.WithField("message", message).Debug("trying to send DM")

	if config.IsPlaceholder(n.accessToken) {
		lg.Info("IG_ACCESS_TOKEN not set, skipping DM send")
		return OutcomeSkipped
	}

	if n.limiter != nil && n.limiter.Enabled() {
		allow, hc, dc, err := n.limiter.CheckAndIncr(ctx, n.businessID, "dm")
		switch {
		case err != nil:
			lg.WithError(err).Warn("dm rate limit check failed, sending anyway")
		case !allow:
			lg.WithFields(logrus.Fields{"hour": hc, "day": dc}).Warn("dm throttled")
			return OutcomeThrottled
		}
	}

	res, err := n.sender.SendMessage(ctx, recipientID, message)
	if res != nil {
		lg = lg.WithFields(logrus.Fields{"status": res.StatusCode, "body": res.Body})
	}
	if err != nil {
		lg.WithError(err).Error("DM send failed")
		return OutcomeFailed
	}

	lg.Info("DM sent")
	return OutcomeSent
}
