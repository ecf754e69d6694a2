package cli

import (
	"context"
	"time"

	"github.com/mkessler/strum/internal/apicache"
	"github.com/mkessler/strum/internal/core"
	"github.com/mkessler/strum/internal/history"
	"github.com/mkessler/strum/internal/mpv"
	"github.com/mkessler/strum/internal/player"
	"github.com/mkessler/strum/internal/recommend"
	"github.com/mkessler/strum/internal/store"
	"github.com/mkessler/strum/internal/tui"
	"github.com/mkessler/strum/internal/youtube"
)

// runSession wires the playback core together and hands control to the
// TUI. It blocks until the user quits, then tears the engine down.
func runSession(initial *core.Track, shuffle bool) error {
	log := sessionLogger()

	st := store.New(log,
		store.WithVolume(cfg.Defaults.Volume),
		store.WithShuffle(shuffle || cfg.Defaults.Shuffle),
		store.WithRepeat(core.RepeatMode(cfg.Defaults.Repeat)),
	)

	engine := mpv.NewEngine(cfg.Player.MPVPath, log, mpv.WithSocketDir(cfg.Player.SocketDir))
	recorder := history.NewMemoryRecorder()
	queries := history.NewMemoryQueryLog()

	cache := apicache.New[[]core.Track](log,
		apicache.WithTTL(time.Duration(cfg.Cache.TTLSeconds)*time.Second),
		apicache.WithSweepInterval(time.Duration(cfg.Cache.SweepSeconds)*time.Second),
	)
	defer cache.Close()

	client := youtube.New(cfg.YouTube.APIKey, cfg.YouTube.MaxResults, log)
	asm := recommend.New(client, cache, recorder, queries, log)

	binding := player.New(st, engine, recorder, log,
		player.WithPollInterval(time.Duration(cfg.Player.PollIntervalMS)*time.Millisecond),
	)

	ctx, cancel := context.WithCancel(context.Background())
	bindingDone := make(chan error, 1)
	go func() { bindingDone <- binding.Run(ctx) }()

	if initial != nil {
		st.Enqueue(*initial)
		st.PlayTrack(*initial)
	}

	app := &tui.App{
		Store:       st,
		Searcher:    client,
		Cache:       cache,
		Assembler:   asm,
		Recorder:    recorder,
		Queries:     queries,
		RefreshRate: time.Duration(cfg.TUI.RefreshMS) * time.Millisecond,
		Logger:      log,
	}
	err := tui.Run(app)

	cancel()
	<-bindingDone
	return err
}
