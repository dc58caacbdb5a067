package types

import "encoding/json"

// FieldComments is the only change field acted on.
const FieldComments = "comments"

// IG webhook envelope. Entries stay raw and are decoded one at a time with
// DecodeEntry.
type IGWebhookEnvelope struct {
	Object string            `json:"object"`
	Entry  []json.RawMessage `json:"entry"`
}

type Entry struct {
	ID      string            `json:"id"`
	Changes []json.RawMessage `json:"changes"`
}

// Value stays raw until the field is known; non-comment payloads have other shapes.
type Change struct {
	Field string          `json:"field"`
	Value json.RawMessage `json:"value"`
}

type CommentValue struct {
	CommentID string   `json:"id,omitempty"`
	ParentID  string   `json:"parent_id,omitempty"`
	Text      string   `json:"text"`
	From      *Sender  `json:"from,omitempty"`
	Media     *IGMedia `json:"media,omitempty"`
}

type Sender struct {
	ID       string `json:"id"`
	Username string `json:"username,omitempty"`
}

type IGMedia struct {
	ID        string `json:"id"`
	MediaType string `json:"media_product_type,omitempty"`
}

// SenderID returns the commenting user's id, or "" when the payload has none.
func (v CommentValue) SenderID() string {
	if v.From == nil {
		return ""
	}
	return v.From.ID
}

func DecodeEntry(raw json.RawMessage) (Entry, error) {
	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return Entry{}, err
	}
	return e, nil
}

func DecodeChange(raw json.RawMessage) (Change, error) {
	var c Change
	if err := json.Unmarshal(raw, &c); err != nil {
		return Change{}, err
	}
	return c, nil
}

// DecodeComment parses a change value as a comment. A missing value decodes
// to the zero CommentValue.
func DecodeComment(raw json.RawMessage) (CommentValue, error) {
	var v CommentValue
	if len(raw) == 0 || string(raw) == "null" {
		return v, nil
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return CommentValue{}, err
	}
	return v, nil
}
