// Package config loads the bot's environment-driven configuration. Every
// option is a plain override with a documented default; the only setting
// that changes behavior structurally is the Redis pair, whose presence
// selects remote-backed storage.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the resolved configuration.
type Config struct {
	DiscordToken string

	RedisAddr     string
	RedisPassword string

	LLMBaseURL string
	LLMAPIKey  string
	LLMModel   string

	CacheFile   string
	PersonaFile string
	MemoryFile  string
	StatusFile  string

	CacheTTL    time.Duration
	HTTPTimeout time.Duration

	EDSMBase      string
	EliteBGSBase  string
	INARABase     string
	INARAKey      string
	PDFSearchBase string
	MCPServers    []string

	HealthListen string
	Debug        bool
}

// RemoteBacked reports whether the stores should bind to Redis.
func (c Config) RemoteBacked() bool {
	return c.RedisAddr != ""
}

// Load resolves configuration from KAEL_-prefixed environment variables
// over the documented defaults (e.g. KAEL_REDIS_ADDR, KAEL_LLM_MODEL).
func Load() Config {
	v := viper.New()

	v.SetDefault("discord_token", "")
	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("llm_base_url", "http://127.0.0.1:11434/v1")
	v.SetDefault("llm_api_key", "unused")
	v.SetDefault("llm_model", "qwen3:8b")
	v.SetDefault("cache_file", "data/cache.json")
	v.SetDefault("persona_file", "data/personas.json")
	v.SetDefault("memory_file", "data/memories.json")
	v.SetDefault("status_file", "data/status.json")
	v.SetDefault("cache_ttl", 10*time.Minute)
	v.SetDefault("http_timeout", 15*time.Second)
	v.SetDefault("edsm_base", "")
	v.SetDefault("elitebgs_base", "")
	v.SetDefault("inara_base", "")
	v.SetDefault("inara_key", "")
	v.SetDefault("pdf_search_base", "")
	v.SetDefault("mcp_servers", "")
	v.SetDefault("health_listen", ":8990")
	v.SetDefault("debug", false)

	v.SetEnvPrefix("KAEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var servers []string
	for _, s := range strings.Split(v.GetString("mcp_servers"), ",") {
		if s = strings.TrimSpace(s); s != "" {
			servers = append(servers, s)
		}
	}

	return Config{
		DiscordToken:  v.GetString("discord_token"),
		RedisAddr:     v.GetString("redis_addr"),
		RedisPassword: v.GetString("redis_password"),
		LLMBaseURL:    v.GetString("llm_base_url"),
		LLMAPIKey:     v.GetString("llm_api_key"),
		LLMModel:      v.GetString("llm_model"),
		CacheFile:     v.GetString("cache_file"),
		PersonaFile:   v.GetString("persona_file"),
		MemoryFile:    v.GetString("memory_file"),
		StatusFile:    v.GetString("status_file"),
		CacheTTL:      v.GetDuration("cache_ttl"),
		HTTPTimeout:   v.GetDuration("http_timeout"),
		EDSMBase:      v.GetString("edsm_base"),
		EliteBGSBase:  v.GetString("elitebgs_base"),
		INARABase:     v.GetString("inara_base"),
		INARAKey:      v.GetString("inara_key"),
		PDFSearchBase: v.GetString("pdf_search_base"),
		MCPServers:    servers,
		HealthListen:  v.GetString("health_listen"),
		Debug:         v.GetBool("debug"),
	}
}
