// Command kaelbot runs the CMDR Kael Discord persona bot.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/cmdrkael/kaelbot"
	"github.com/cmdrkael/kaelbot/cache"
	"github.com/cmdrkael/kaelbot/config"
	"github.com/cmdrkael/kaelbot/health"
	"github.com/cmdrkael/kaelbot/heartbeat"
	"github.com/cmdrkael/kaelbot/kv"
	"github.com/cmdrkael/kaelbot/llm"
	"github.com/cmdrkael/kaelbot/store"
	"github.com/cmdrkael/kaelbot/tools"
)

func main() {
	root := &cobra.Command{
		Use:          "kaelbot",
		Short:        "CMDR Kael, an Elite Dangerous persona bot for Discord",
		SilenceUsage: true,
		RunE:         run,
	}
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	logg := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "kaelbot",
	})
	if cfg.Debug {
		logg.SetLevel(log.DebugLevel)
	}
	if cfg.DiscordToken == "" {
		return errors.New("KAEL_DISCORD_TOKEN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Backend selection happens once, here. Without a Redis address every
	// store binds to its local JSON document instead.
	var db kv.Store
	if cfg.RemoteBacked() {
		r := kv.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword)
		if err := r.Ping(ctx); err != nil {
			logg.Warn("redis unreachable, remote writes will be discarded", "addr", cfg.RedisAddr, "err", err)
			db = kv.NewNoopStore()
		} else {
			logg.Info("using redis-backed stores", "addr", cfg.RedisAddr)
			db = r
		}
	} else {
		logg.Warn("no redis configured, using file-backed stores")
	}

	mkStore := func(name, file string) *store.Store {
		if db != nil {
			return store.New(name, store.WithKV(db), store.WithLogger(logg))
		}
		return store.New(name, store.WithFile(file), store.WithLogger(logg))
	}
	cacheStore := mkStore("cache", cfg.CacheFile)
	personaStore := mkStore("persona", cfg.PersonaFile)
	memoryStore := mkStore("mem", cfg.MemoryFile)
	statusStore := mkStore("status", cfg.StatusFile)
	defer func() {
		for _, st := range []*store.Store{cacheStore, personaStore, memoryStore, statusStore} {
			if err := st.Close(); err != nil {
				logg.Error("store close failed", "err", err)
			}
		}
	}()

	personas := store.NewPersonaStore(personaStore)
	memories, err := store.NewMemoryStore(ctx, memoryStore)
	if err != nil {
		return err
	}

	registry := tools.NewRegistry(cache.New(cacheStore),
		tools.WithHTTPTimeout(cfg.HTTPTimeout),
		tools.WithLogger(logg),
	)
	registry.RegisterEDSM(cfg.EDSMBase, cfg.CacheTTL)
	registry.RegisterEliteBGS(cfg.EliteBGSBase, cfg.CacheTTL)
	registry.RegisterINARA(cfg.INARABase, cfg.INARAKey, cfg.CacheTTL)
	registry.RegisterPDFSearch(cfg.PDFSearchBase, cfg.CacheTTL)
	mcpSrc := tools.NewMcpSource()
	for _, uri := range cfg.MCPServers {
		if err := mcpSrc.AddServer(registry, uri, cfg.CacheTTL); err != nil {
			logg.Error("mcp server unavailable", "uri", uri, "err", err)
		}
	}
	logg.Info("tool registry ready", "tools", registry.Count())

	bot := kaelbot.New(personas, memories, registry,
		llm.New(
			llm.WithBaseURL(cfg.LLMBaseURL),
			llm.WithAPIKey(cfg.LLMAPIKey),
			llm.WithModel(cfg.LLMModel),
		),
		kaelbot.WithLogger(logg),
	)

	hb := heartbeat.New(statusStore, heartbeat.WithLogger(logg))
	hb.Start()
	defer hb.Stop()

	go func() {
		if err := health.Serve(statusStore, heartbeat.DefaultTTL, cfg.HealthListen); err != nil {
			logg.Error("health endpoint failed", "addr", cfg.HealthListen, "err", err)
		}
	}()

	d, err := kaelbot.NewDiscord(cfg.DiscordToken, bot, logg)
	if err != nil {
		return err
	}
	if err := d.Open(); err != nil {
		return err
	}
	defer d.Close()
	hb.SetReady(true)
	logg.Info("connected, o7")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logg.Info("shutting down")
	return nil
}
