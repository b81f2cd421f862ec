package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/docstash/internal/ask"
	"github.com/sells-group/docstash/internal/classify"
	"github.com/sells-group/docstash/internal/config"
	"github.com/sells-group/docstash/internal/contentcache"
	"github.com/sells-group/docstash/internal/fetch"
	"github.com/sells-group/docstash/internal/search"
	"github.com/sells-group/docstash/internal/stash"
	"github.com/sells-group/docstash/internal/store"
	anthropicpkg "github.com/sells-group/docstash/pkg/anthropic"
)

// env bundles everything a command needs: the catalog store and the
// stash service wired on top of it.
type env struct {
	Store   store.Store
	Service *stash.Service
}

func (e *env) Close() {
	_ = e.Store.Close()
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	case "sqlite", "":
		return store.NewSQLite(cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

func initService(ctx context.Context) (*env, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	var client anthropicpkg.Client
	if cfg.Anthropic.Key != "" {
		client = anthropicpkg.NewClient(cfg.Anthropic.Key)
	}

	fetcher := fetch.NewHTTP(fetch.HTTPOptions{
		UserAgent:     cfg.Fetch.UserAgent,
		Timeout:       time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
		RatePerSecond: cfg.Fetch.RatePerSecond,
		RateBurst:     cfg.Fetch.RateBurst,
		MaxBodyBytes:  cfg.Fetch.MaxBodyBytes,
	})

	svc := stash.New(
		st,
		fetcher,
		contentcache.New(cfg.Cache.MaxBytes, nil),
		ask.New(client),
		classify.New(client, cfg.Anthropic.ClassifyModel, cfg.Classify.SampleBudgetChars, cfg.Classify.SampleChunks, cfg.Ask.Timeout(), nil),
		search.NewRipgrep(cfg.Search.RipgrepPath),
		stash.Options{
			Dir:             cfg.Stash.Dir,
			InboxDir:        cfg.Stash.InboxDir,
			Ask:             askOptions(cfg),
			SearchMaxPerDoc: cfg.Search.MaxMatchesPerDoc,
			SearchTimeout:   time.Duration(cfg.Search.TimeoutSecs) * time.Second,
		},
	)

	return &env{Store: st, Service: svc}, nil
}

func askOptions(cfg *config.Config) ask.Options {
	return ask.Options{
		Model:                cfg.Anthropic.Model,
		MaxInputTokens:       cfg.Ask.MaxInputTokens,
		MaxOutputTokens:      cfg.Ask.MaxOutputTokens,
		Timeout:              cfg.Ask.Timeout(),
		SplitAndSynthesize:   cfg.Ask.SplitAndSynthesize,
		HardLimitBytes:       cfg.Ask.HardLimitBytes,
		ChunkOverlapChars:    cfg.Ask.ChunkOverlapChars,
		PromptOverheadTokens: cfg.Ask.PromptOverheadTokens,
	}
}
