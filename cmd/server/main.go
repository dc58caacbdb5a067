package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"ig-comment-dm/internal/config"
	httpserver "ig-comment-dm/internal/http"
	"ig-comment-dm/internal/ig"
	"ig-comment-dm/internal/logging"
	"ig-comment-dm/internal/notify"
	"ig-comment-dm/internal/processor"
	"ig-comment-dm/internal/rate"
	"ig-comment-dm/internal/store"
	"ig-comment-dm/internal/types"
)

func mustRedisStore(cfg *config.Config, lg logrus.FieldLogger) *store.RedisStore {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	kv := store.NewRedisStore(rdb)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := kv.Ping(ctx); err != nil {
		lg.WithError(err).Fatal("redis ping")
	}
	return kv
}

func main() {
	// Load Env
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("config")
	}
	lg := logging.New(cfg.LogLevel, cfg.LogFormat, cfg.Debug)
	lg.Debug("debug logging enabled")

	if !cfg.MessagingConfigured() {
		lg.Warn("IG_ACCESS_TOKEN not set, DMs will be logged but not sent")
	}

	// Redis (optional: dedup + rate limit)
	var kv *store.RedisStore
	if cfg.RedisEnabled() {
		kv = mustRedisStore(cfg, lg)
		defer kv.Close()
		lg.WithField("addr", cfg.RedisAddr).Info("redis enabled")
	}

	// Outbound DMs
	client := ig.NewClient(cfg.GraphAPIBase, cfg.BusinessID, cfg.AccessToken)
	var notifyOpts []notify.Option
	if kv != nil {
		if lim := rate.NewLimiter(kv, cfg.DMMaxPerHour, cfg.DMMaxPerDay); lim.Enabled() {
			notifyOpts = append(notifyOpts, notify.WithLimiter(lim))
		}
	}
	notifier := notify.NewDMNotifier(client, cfg.AccessToken, cfg.BusinessID, lg, notifyOpts...)

	// Comments
	rules := types.DefaultReplyRules()
	triggers := make([]string, 0, rules.Len())
	for _, r := range rules.Rules() {
		triggers = append(triggers, r.Trigger)
	}
	lg.WithFields(logrus.Fields{"count": rules.Len(), "triggers": triggers}).Info("reply rules loaded")

	commentProc := processor.NewCommentProcessor(rules, notifier, lg)
	if kv != nil {
		commentProc.WithDeduper(kv, cfg.DedupTTL)
	}

	webhook := httpserver.NewWebhookHandler(cfg.VerifyToken, cfg.AppSecret, commentProc, lg)
	e := httpserver.NewServer(webhook, lg)

	s := &http.Server{
		Addr:              cfg.HTTPAddr,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		lg.WithFields(logrus.Fields{"addr": cfg.HTTPAddr, "env": cfg.AppEnv}).Info("HTTP listening")
		if err := e.StartServer(s); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.WithError(err).Fatal("http server")
		}
	}()

	<-ctx.Done()
	lg.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		lg.WithError(err).Error("http shutdown")
	}
}
