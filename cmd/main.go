package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	log15 "github.com/inconshreveable/log15/v3"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/socketmode"

	"ClaimRelay/bot"
	"ClaimRelay/config"
	"ClaimRelay/db"
	"ClaimRelay/scheduler"
	"ClaimRelay/utils"
)

func main() {
	logger := log15.New("module", "main")

	cfg, err := config.Load()
	if err != nil {
		logger.Crit("configuration failed", "err", err)
		os.Exit(1)
	}

	lvl, err := log15.LvlFromString(cfg.LogLevel)
	if err != nil {
		lvl = log15.LvlInfo
	}
	log15.Root().SetHandler(log15.LvlFilterHandler(lvl, log15.StdoutHandler))

	store, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Crit("database failed", "err", err)
		os.Exit(1)
	}

	var cache *utils.ClaimCache
	if cfg.RedisURL != "" {
		cache, err = utils.NewClaimCache(cfg.RedisURL)
		if err != nil {
			logger.Crit("redis failed", "err", err)
			os.Exit(1)
		}
	} else {
		logger.Info("claim cache disabled, REDIS_URL not set")
	}

	if cfg.AdminCount() == 0 {
		logger.Warn("ADMIN_USER_IDS is empty, all administrative commands will be rejected")
	}

	client := slack.New(cfg.SlackBotToken, slack.OptionAppLevelToken(cfg.SlackAppToken))
	socket := socketmode.New(client)

	b := bot.New(cfg, client, socket, store, cache)

	cronJobs := scheduler.Start(store)
	defer cronJobs.Stop()

	go func() {
		logger.Info("http server running", "port", cfg.Port)
		if err := http.ListenAndServe(":"+cfg.Port, SetupRouter(store)); err != nil {
			logger.Error("http server stopped", "err", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := b.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Crit("bot stopped", "err", err)
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}
