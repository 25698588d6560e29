package cli

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/agisilaos/flightwatch/internal/config"
)

type configKey struct {
	get    func(config.Config) string
	set    func(*config.Config, string) error
	secret bool
}

var configKeys = map[string]configKey{
	"api_base_url": {
		get: func(c config.Config) string { return c.APIBaseURL },
		set: func(c *config.Config, v string) error { c.APIBaseURL = v; return nil },
	},
	"request_timeout_seconds": {
		get: func(c config.Config) string { return strconv.Itoa(c.RequestTimeoutSeconds) },
		set: func(c *config.Config, v string) error { return setPositiveInt(&c.RequestTimeoutSeconds, "request_timeout_seconds", v) },
	},
	"token_store": {
		get: func(c config.Config) string { return c.TokenStore },
		set: func(c *config.Config, v string) error { c.TokenStore = strings.ToLower(v); return nil },
	},
	"redis_addr": {
		get: func(c config.Config) string { return c.RedisAddr },
		set: func(c *config.Config, v string) error { c.RedisAddr = v; return nil },
	},
	"redis_password": {
		get:    func(c config.Config) string { return c.RedisPassword },
		set:    func(c *config.Config, v string) error { c.RedisPassword = v; return nil },
		secret: true,
	},
	"redis_db": {
		get: func(c config.Config) string { return strconv.Itoa(c.RedisDB) },
		set: func(c *config.Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return fmt.Errorf("redis_db must be a non-negative integer")
			}
			c.RedisDB = n
			return nil
		},
	},
	"redis_key": {
		get: func(c config.Config) string { return c.RedisKey },
		set: func(c *config.Config, v string) error { c.RedisKey = v; return nil },
	},
	"log_level": {
		get: func(c config.Config) string { return c.LogLevel },
		set: func(c *config.Config, v string) error { c.LogLevel = strings.ToLower(v); return nil },
	},
	"log_format": {
		get: func(c config.Config) string { return c.LogFormat },
		set: func(c *config.Config, v string) error { c.LogFormat = strings.ToLower(v); return nil },
	},
	"metrics_textfile": {
		get: func(c config.Config) string { return c.MetricsTextfile },
		set: func(c *config.Config, v string) error { c.MetricsTextfile = v; return nil },
	},
}

func configKeyNames() []string {
	out := make([]string, 0, len(configKeys))
	for k := range configKeys {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func unknownConfigKey(action, key string) error {
	return ExitError{Code: ExitInvalidUsage, Err: unknownCommandError{
		Scope:   "config " + action,
		Noun:    "config key",
		Name:    key,
		Choices: configKeyNames(),
	}}
}

func setPositiveInt(dst *int, name, v string) error {
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fmt.Errorf("%s must be a positive integer", name)
	}
	*dst = n
	return nil
}

func (a App) cmdConfig(g globalFlags, args []string) error {
	if len(args) < 2 {
		return newExitError(ExitInvalidUsage, "usage: fwatch config get <key> | fwatch config set <key> <value>")
	}
	switch args[0] {
	case "get":
		if len(args) != 2 {
			return newExitError(ExitInvalidUsage, "usage: fwatch config get <key>")
		}
		key, ok := configKeys[args[1]]
		if !ok {
			return unknownConfigKey("get", args[1])
		}
		cfg, err := config.Load()
		if err != nil {
			return wrapExitError(ExitGenericFailure, err)
		}
		val := key.get(cfg)
		if key.secret && val != "" {
			val = "***"
		}
		if g.JSON {
			return writeJSON(map[string]string{"key": args[1], "value": val})
		}
		fmt.Println(val)
		return nil
	case "set":
		if len(args) != 3 {
			return newExitError(ExitInvalidUsage, "usage: fwatch config set <key> <value>")
		}
		key, ok := configKeys[args[1]]
		if !ok {
			return unknownConfigKey("set", args[1])
		}
		cfg, err := config.LoadFile()
		if err != nil {
			return wrapExitError(ExitGenericFailure, err)
		}
		if err := key.set(&cfg, strings.TrimSpace(args[2])); err != nil {
			return newExitError(ExitInvalidUsage, "%v", err)
		}
		if err := cfg.Validate(); err != nil {
			return wrapExitError(ExitInvalidUsage, err)
		}
		if err := config.Save(cfg); err != nil {
			return wrapExitError(ExitGenericFailure, err)
		}
		if g.Plain && !g.JSON {
			writePlainKV("key", args[1], "ok", "true")
			return nil
		}
		return writeMaybeJSON(g, map[string]string{"ok": "true", "key": args[1]})
	default:
		return newUnknownCommand("config", args[0], []string{"get", "set"})
	}
}
