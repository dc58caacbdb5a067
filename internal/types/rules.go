package types

import "strings"

type ReplyRule struct {
	Trigger string
	Message string
}

// ReplyRules is an ordered trigger -> message table. It is built once and
// never mutated; Lookup is safe for concurrent use.
type ReplyRules struct {
	rules []ReplyRule
	index map[string]string
}

func NewReplyRules(rules ...ReplyRule) ReplyRules {
	rs := ReplyRules{
		rules: make([]ReplyRule, 0, len(rules)),
		index: make(map[string]string, len(rules)),
	}
	for _, r := range rules {
		if _, dup := rs.index[r.Trigger]; dup {
			continue
		}
		rs.rules = append(rs.rules, r)
		rs.index[r.Trigger] = r.Message
	}
	return rs
}

// Lookup matches text exactly after trimming surrounding whitespace.
func (rs ReplyRules) Lookup(text string) (string, bool) {
	msg, ok := rs.index[strings.TrimSpace(text)]
	return msg, ok
}

// Rules returns a copy of the table in declaration order.
func (rs ReplyRules) Rules() []ReplyRule {
	out := make([]ReplyRule, len(rs.rules))
	copy(out, rs.rules)
	return out
}

func (rs ReplyRules) Len() int { return len(rs.rules) }

// Song-guessing clues sent for comments "1", "2" and "3".
const (
	ReplySingerHint = "🎤 سرنخ ۱: خواننده‌ی این آهنگ یه آقای معروفه تو سبک پاپ!"
	ReplyGenreHint  = "🎶 سرنخ ۲: ژانر آهنگ پاپ شادِ مخصوص رقص!"
	ReplyTitleHint  = "😉 سرنخ ۳: اسم آهنگ با حرف 'د' شروع میشه!"
)

func DefaultReplyRules() ReplyRules {
	return NewReplyRules(
		ReplyRule{Trigger: "1", Message: ReplySingerHint},
		ReplyRule{Trigger: "2", Message: ReplyGenreHint},
		ReplyRule{Trigger: "3", Message: ReplyTitleHint},
	)
}
