package httpserver

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"ig-comment-dm/internal/notify"
	"ig-comment-dm/internal/types"
)

const (
	HomeText         = "Instagram comment webhook is running ✅"
	AckText          = "EVENT_RECEIVED"
	TokenMismatchMsg = "Verification token mismatch"
)

type CommentProcessor interface {
	Process(ctx context.Context, v types.CommentValue) notify.Outcome
}

type WebhookHandler struct {
	verifyToken string
	appSecret   string
	commentProc CommentProcessor
	log         logrus.FieldLogger
}

func NewWebhookHandler(
	verifyToken string,
	appSecret string,
	commentProc CommentProcessor,
	log logrus.FieldLogger,
) *WebhookHandler {
	return &WebhookHandler{
		verifyToken: verifyToken,
		appSecret:   appSecret,
		commentProc: commentProc,
		log:         log,
	}
}

func (h *WebhookHandler) Register(e *echo.Echo) {
	e.GET("/", h.Home)
	e.GET("/webhook", h.Verify)
	e.POST("/webhook", h.Receive)
}

func (h *WebhookHandler) Home(c echo.Context) error {
	return c.String(http.StatusOK, HomeText)
}

// Verify answers the subscription handshake: echo hub.challenge when
// hub.mode is "subscribe", hub.verify_token matches exactly and a
// hub.challenge is present.
func (h *WebhookHandler) Verify(c echo.Context) error {
	mode := c.QueryParam("hub.mode")
	token := c.QueryParam("hub.verify_token")
	challenge := c.QueryParam("hub.challenge")

	lg := h.log.WithFields(logrus.Fields{"mode": mode, "token": token})
	lg.Info("verification request")

	if mode == "subscribe" && token == h.verifyToken && challenge != "" {
		return c.String(http.StatusOK, challenge)
	}
	lg.Warn("verification token mismatch")
	return c.String(http.StatusForbidden, TokenMismatchMsg)
}

// Receive always acknowledges with 200: any non-2xx makes the platform retry.
func (h *WebhookHandler) Receive(c echo.Context) error {
	lg := h.log.WithField("request_id", c.Response().Header().Get(echo.HeaderXRequestID))

	// 1) Read body
	bodyBytes, err := io.ReadAll(c.Request().Body)
	if err != nil {
		lg.WithError(err).Warn("read webhook body")
		return c.String(http.StatusOK, AckText)
	}

	// 2) Verify X-Hub-Signature-256 when an app secret is set
	if h.appSecret != "" {
		if sig := c.Request().Header.Get("X-Hub-Signature-256"); !verifySignature(h.appSecret, bodyBytes, sig) {
			lg.Warn("invalid webhook signature, payload dropped")
			return c.String(http.StatusOK, AckText)
		}
	}

	// 3) Process synchronously; delivery must not be cut short by the caller hanging up
	ctx := context.WithoutCancel(c.Request().Context())
	h.process(ctx, lg, bodyBytes)

	return c.String(http.StatusOK, AckText)
}

func (h *WebhookHandler) process(ctx context.Context, lg logrus.FieldLogger, body []byte) {
	lg.WithField("body", string(body)).Debug("incoming webhook data")

	var env types.IGWebhookEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		lg.WithError(err).Warn("parse webhook")
		return
	}
	if env.Entry == nil {
		lg.WithField("object", env.Object).Warn("webhook payload has no entry")
		return
	}

	// Entries and changes are decoded one by one so a malformed sibling
	// never costs the valid comments in the same batch.
	for i, rawEntry := range env.Entry {
		entry, err := types.DecodeEntry(rawEntry)
		if err != nil {
			lg.WithError(err).WithField("entry_index", i).Warn("parse webhook entry")
			continue
		}
		elg := lg.WithField("entry_id", entry.ID)
		for j, rawChange := range entry.Changes {
			ch, err := types.DecodeChange(rawChange)
			if err != nil {
				elg.WithError(err).WithField("change_index", j).Warn("parse webhook change")
				continue
			}
			if ch.Field != types.FieldComments {
				elg.WithField("field", ch.Field).Debug("ignoring change")
				continue
			}
			h.handleComment(ctx, elg, ch.Value)
		}
	}
}

// handleComment isolates one comment: nothing that goes wrong here reaches
// sibling comments or the response.
func (h *WebhookHandler) handleComment(ctx context.Context, lg logrus.FieldLogger, raw json.RawMessage) {
	defer func() {
		if r := recover(); r != nil {
			lg.WithField("panic", r).Error("comment processing panicked")
		}
	}()

	v, err := types.DecodeComment(raw)
	if err != nil {
		lg.WithError(err).Warn("parse comment value")
		return
	}
	if h.commentProc == nil {
		lg.Warn("commentProc not configured")
		return
	}
	h.commentProc.Process(ctx, v)
}

// ======= Helpers =======

func verifySignature(appSecret string, body []byte, sigHeader string) bool {
	// sigHeader format: "sha256=hexdigest"
	if len(sigHeader) < 7 || sigHeader[:7] != "sha256=" {
		return false
	}
	sigProvided := sigHeader[7:]

	mac := hmac.New(sha256.New, []byte(appSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(sigProvided), []byte(expected))
}
