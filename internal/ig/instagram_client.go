package ig

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// maxResponseBody bounds how much of a Graph API response is kept for logging.
const maxResponseBody = 64 << 10

type Client struct {
	HTTP        *http.Client
	BaseURL     string // versioned, e.g. https://graph.facebook.com/v19.0
	BusinessID  string // IG business account id
	AccessToken string
}

func NewClient(baseURL, businessID, accessToken string) *Client {
	return &Client{
		HTTP:        &http.Client{Timeout: 10 * time.Second},
		BaseURL:     baseURL,
		BusinessID:  businessID,
		AccessToken: accessToken,
	}
}

type sendMessageRequest struct {
	Recipient struct {
		ID string `json:"id"`
	} `json:"recipient"`
	Message struct {
		Text string `json:"text"`
	} `json:"message"`
}

// SendResult is what the Graph API answered; the body is not interpreted.
type SendResult struct {
	StatusCode int
	Body       string
}

// SendMessage posts a text DM to recipientIGUserID via
// {BaseURL}/{BusinessID}/messages. A non-2xx answer is returned as an error
// together with the result so callers can log the body.
func (c *Client) SendMessage(ctx context.Context, recipientIGUserID, text string) (*SendResult, error) {
	endpoint := fmt.Sprintf("%s/%s/messages?%s", c.BaseURL, url.PathEscape(c.BusinessID),
		url.Values{"access_token": {c.AccessToken}}.Encode())

	var payload sendMessageRequest
	payload.Recipient.ID = recipientIGUserID
	payload.Message.Text = text
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	res := &SendResult{StatusCode: resp.StatusCode, Body: string(body)}
	if resp.StatusCode >= 300 {
		return res, fmt.Errorf("SendMessage status %d", resp.StatusCode)
	}
	return res, nil
}
