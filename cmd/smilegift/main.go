// Command smilegift is the terminal client for Smile & Gift.
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"smilegift/internal/api"
	"smilegift/internal/apiclient"
	"smilegift/internal/cache"
	"smilegift/internal/cli"
	"smilegift/internal/config"
	"smilegift/internal/navigator"
	"smilegift/internal/notify"
	"smilegift/internal/observability"
	"smilegift/internal/pages"
	"smilegift/internal/session"
	"smilegift/internal/tokenstore"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Printf("Failed to load configuration: %v", err)
		return 1
	}
	observability.ConfigureLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    "smilegift-cli",
		ServiceVersion: "1.0.0",
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   cfg.TracingSamplerRatio,
	})
	if err != nil {
		log.Printf("Failed to initialize tracing: %v", err)
		return 1
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			log.Printf("Tracing shutdown error: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tokens, closeTokens, err := tokenstore.Open(ctx, tokenstore.Options{
		Kind:     cfg.TokenStore,
		FilePath: cfg.TokenFile,
		RedisURL: cfg.RedisURL,
	})
	if err != nil {
		log.Printf("Failed to open token store: %v", err)
		return 1
	}
	defer closeTokens()

	queries, closeCache, err := cache.Open(ctx, cfg.QueryCache, cfg.RedisURL)
	if err != nil {
		log.Printf("Failed to open query cache: %v", err)
		return 1
	}
	defer closeCache()

	nav := navigator.NewTerminal(os.Stdout)
	transport := apiclient.New(cfg.APIURL, tokens, nav,
		apiclient.WithTimeout(cfg.RequestTimeout()),
		apiclient.WithUserAgent(cfg.UserAgent),
	)
	apis := api.New(transport)
	notifier := notify.Multi{notify.NewWriter(os.Stderr), notify.Log{}}
	sess := session.New(apis.Auth, tokens, notifier)
	transport.OnTeardown(sess.Expire)
	queries.ScopeTo(sess.ViewerID)

	app := cli.New(pages.Deps{
		API:              apis,
		Session:          sess,
		Cache:            queries,
		Navigator:        nav,
		Notifier:         notifier,
		UserAgent:        cfg.UserAgent,
		FeedPageSize:     cfg.FeedPageSize,
		FeedStale:        cfg.FeedStale(),
		LeaderboardStale: cfg.LeaderboardStale(),
	}, os.Stdout)

	if err := app.Run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, cli.ErrUsage) {
			log.Print(err)
			return 2
		}
		if _, ok := pages.AsFieldErrors(err); !ok {
			log.Print(err)
		}
		return 1
	}
	return 0
}
