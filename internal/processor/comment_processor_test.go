package processor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ig-comment-dm/internal/notify"
	"ig-comment-dm/internal/types"
)

type sentDM struct {
	Recipient string
	Message   string
}

type recordingNotifier struct {
	sent []sentDM
}

func (r *recordingNotifier) Notify(_ context.Context, recipientID, message string) notify.Outcome {
	r.sent = append(r.sent, sentDM{recipientID, message})
	return notify.OutcomeSent
}

type memDeduper struct {
	seen map[string]bool
	err  error
}

func (m *memDeduper) AcquireOnce(_ context.Context, key string, _ time.Duration) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	if m.seen[key] {
		return false, nil
	}
	m.seen[key] = true
	return true, nil
}

func comment(text, from string) types.CommentValue {
	v := types.CommentValue{Text: text}
	if from != "" {
		v.From = &types.Sender{ID: from}
	}
	return v
}

func TestResolve(t *testing.T) {
	rules := types.DefaultReplyRules()

	tests := []struct {
		name    string
		value   types.CommentValue
		want    string
		wantErr error
	}{
		{"trigger 1", comment("1", "U1"), types.ReplySingerHint, nil},
		{"trigger 2", comment("2", "U1"), types.ReplyGenreHint, nil},
		{"trigger 3", comment("3", "U1"), types.ReplyTitleHint, nil},
		{"padded", comment(" 1 ", "U1"), types.ReplySingerHint, nil},
		{"empty", comment("", "U1"), "", ErrNoMatch},
		{"zero", comment("0", "U1"), "", ErrNoMatch},
		{"eleven", comment("11", "U1"), "", ErrNoMatch},
		{"words", comment("clue please", "U1"), "", ErrNoMatch},
		{"no sender", comment("2", ""), "", ErrMissingRecipient},
		{"empty sender id", types.CommentValue{Text: "2", From: &types.Sender{}}, "", ErrMissingRecipient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(rules, tt.value)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "U1", got.RecipientID)
			assert.Equal(t, tt.want, got.Message)

			again, err := Resolve(rules, tt.value)
			require.NoError(t, err)
			assert.Equal(t, got, again)
		})
	}
}

func TestProcessSendsReply(t *testing.T) {
	lg, _ := test.NewNullLogger()
	n := &recordingNotifier{}
	p := NewCommentProcessor(types.DefaultReplyRules(), n, lg)

	out := p.Process(context.Background(), comment("2", "U1"))

	assert.Equal(t, notify.OutcomeSent, out)
	assert.Equal(t, []sentDM{{"U1", types.ReplyGenreHint}}, n.sent)
}

func TestProcessMissingSenderWarns(t *testing.T) {
	lg, hook := test.NewNullLogger()
	n := &recordingNotifier{}
	p := NewCommentProcessor(types.DefaultReplyRules(), n, lg)

	out := p.Process(context.Background(), comment("2", ""))

	assert.Equal(t, notify.OutcomeSkipped, out)
	assert.Empty(t, n.sent)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestProcessUnmatchedIsSilent(t *testing.T) {
	lg, hook := test.NewNullLogger()
	n := &recordingNotifier{}
	p := NewCommentProcessor(types.DefaultReplyRules(), n, lg)

	assert.Equal(t, notify.OutcomeSkipped, p.Process(context.Background(), comment("nice song", "U1")))
	assert.Empty(t, n.sent)
	for _, e := range hook.AllEntries() {
		assert.True(t, e.Level > logrus.WarnLevel, "unexpected %s log: %s", e.Level, e.Message)
	}
}

func TestProcessDeduplicatesByCommentID(t *testing.T) {
	lg, _ := test.NewNullLogger()
	n := &recordingNotifier{}
	p := NewCommentProcessor(types.DefaultReplyRules(), n, lg).
		WithDeduper(&memDeduper{seen: map[string]bool{}}, time.Hour)

	v := comment("1", "U1")
	v.CommentID = "c-1"
	assert.Equal(t, notify.OutcomeSent, p.Process(context.Background(), v))
	assert.Equal(t, notify.OutcomeSkipped, p.Process(context.Background(), v))

	// comments without an id are never deduplicated
	noID := comment("1", "U1")
	p.Process(context.Background(), noID)
	p.Process(context.Background(), noID)

	assert.Len(t, n.sent, 3)
}

func TestProcessDedupErrorFailsOpen(t *testing.T) {
	lg, _ := test.NewNullLogger()
	n := &recordingNotifier{}
	p := NewCommentProcessor(types.DefaultReplyRules(), n, lg).
		WithDeduper(&memDeduper{err: errors.New("redis down")}, time.Hour)

	v := comment("3", "U9")
	v.CommentID = "c-9"
	assert.Equal(t, notify.OutcomeSent, p.Process(context.Background(), v))
	assert.Equal(t, []sentDM{{"U9", types.ReplyTitleHint}}, n.sent)
}
