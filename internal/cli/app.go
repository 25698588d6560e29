package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/agisilaos/flightwatch/internal/config"
	"github.com/agisilaos/flightwatch/internal/form"
	"github.com/agisilaos/flightwatch/internal/gateway"
	"github.com/agisilaos/flightwatch/internal/logger"
	"github.com/agisilaos/flightwatch/internal/metrics"
	"github.com/agisilaos/flightwatch/internal/session"
	"github.com/agisilaos/flightwatch/internal/tokenstore"
	"github.com/agisilaos/flightwatch/internal/watchlist"
)

type App struct {
	Version string
	// Now and HTTPClient are swapped out by tests.
	Now        func() time.Time
	HTTPClient *http.Client
}

type globalFlags struct {
	JSON     bool
	Plain    bool
	Quiet    bool
	Verbose  bool
	NoInput  bool
	StateDir string
	Timeout  time.Duration
	Help     bool
	Version  bool
}

var topCommands = []string{"login", "register", "logout", "status", "open", "watch", "config", "doctor", "completion", "help", "version"}

func NewApp(version string) App {
	return App{Version: version}
}

func (a App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a App) Run(args []string) error {
	g, rest, err := parseGlobal(args)
	if err != nil {
		return newExitError(ExitInvalidUsage, "%v", err)
	}
	if g.Help {
		return a.help(rest)
	}
	if g.Version {
		fmt.Println(a.Version)
		return nil
	}
	if len(rest) == 0 {
		return a.help(nil)
	}
	cmd := rest[0]
	argv := rest[1:]

	switch cmd {
	case "help", "-h", "--help":
		return a.help(argv)
	case "--version", "version":
		fmt.Println(a.Version)
		return nil
	case "login":
		return a.cmdLogin(g, argv)
	case "register":
		return a.cmdRegister(g, argv)
	case "logout":
		return a.cmdLogout(g, argv)
	case "status":
		return a.cmdStatus(g, argv)
	case "open":
		return a.cmdOpen(g, argv)
	case "watch":
		return a.cmdWatch(g, argv)
	case "config":
		return a.cmdConfig(g, argv)
	case "doctor":
		return a.cmdDoctor(g, argv)
	case "completion":
		return a.cmdCompletion(g, argv)
	default:
		return newUnknownCommand("", cmd, topCommands)
	}
}

func parseGlobal(args []string) (globalFlags, []string, error) {
	var g globalFlags
	for len(args) > 0 {
		a := args[0]
		switch a {
		case "-h", "--help":
			g.Help = true
			args = args[1:]
		case "--version":
			g.Version = true
			args = args[1:]
		case "--json":
			g.JSON = true
			args = args[1:]
		case "--plain":
			g.Plain = true
			args = args[1:]
		case "-q", "--quiet":
			g.Quiet = true
			args = args[1:]
		case "-v", "--verbose":
			g.Verbose = true
			args = args[1:]
		case "--no-input":
			g.NoInput = true
			args = args[1:]
		case "--state-dir":
			if len(args) < 2 {
				return g, nil, fmt.Errorf("--state-dir requires a value")
			}
			g.StateDir = args[1]
			args = args[2:]
		case "--timeout":
			if len(args) < 2 {
				return g, nil, fmt.Errorf("--timeout requires a value")
			}
			d, err := time.ParseDuration(args[1])
			if err != nil || d <= 0 {
				return g, nil, fmt.Errorf("--timeout must be a positive duration such as 10s")
			}
			g.Timeout = d
			args = args[2:]
		default:
			if strings.HasPrefix(a, "-") {
				return g, nil, fmt.Errorf("unknown global flag %q", a)
			}
			return g, args, nil
		}
	}
	return g, args, nil
}

// runtime is everything a session-aware command needs, built once per run.
type runtime struct {
	cfg     config.Config
	log     *logger.Logger
	metrics *metrics.Collector
	tokens  tokenBackend
	session *session.Store
	gateway *gateway.Client
	list    *watchlist.List
	form    *form.Controller
}

type tokenBackend interface {
	session.TokenStore
	Describe() string
}

func (a App) openRuntime(ctx context.Context, g globalFlags) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, wrapExitError(ExitGenericFailure, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, wrapExitError(ExitInvalidUsage, err)
	}
	level := cfg.LogLevel
	if g.Verbose {
		level = "debug"
	}
	log, err := logger.New(logger.Options{Level: level, Format: cfg.LogFormat})
	if err != nil {
		return nil, wrapExitError(ExitInvalidUsage, err)
	}
	tokens, err := a.tokenBackend(cfg, g.StateDir)
	if err != nil {
		return nil, wrapExitError(ExitGenericFailure, err)
	}

	rt := &runtime{cfg: cfg, log: log, metrics: metrics.New(), tokens: tokens}
	rt.session = session.NewStore(tokens)
	rt.session.Subscribe(func(t session.Transition) {
		rt.metrics.ObserveTransition(string(t.To))
		log.Debug("session transition", "from", t.From, "to", t.To, "reason", t.Reason)
	})
	timeout := cfg.RequestTimeout()
	if g.Timeout > 0 {
		timeout = g.Timeout
	}
	rt.gateway = gateway.New(gateway.Options{
		BaseURL: cfg.APIBaseURL,
		HTTP:    a.HTTPClient,
		Timeout: timeout,
		Session: rt.session,
		Logger:  log,
		Metrics: rt.metrics,
	})
	rt.list = watchlist.New(rt.gateway, rt.session)
	rt.session.Subscribe(rt.list.OnTransition)
	rt.form = form.NewController(rt.gateway, a.now)

	if err := rt.session.Bootstrap(ctx); err != nil {
		log.Warn("could not read stored token; continuing logged out", "store", tokens.Describe(), "error", err)
	}
	return rt, nil
}

func (rt *runtime) close() {
	if path := strings.TrimSpace(rt.cfg.MetricsTextfile); path != "" {
		if err := rt.metrics.WriteTextfile(path); err != nil {
			rt.log.Warn("could not write metrics textfile", "path", path, "error", err)
		}
	}
	if c, ok := rt.tokens.(interface{ Close() error }); ok {
		_ = c.Close()
	}
}

func (a App) tokenBackend(cfg config.Config, stateOverride string) (tokenBackend, error) {
	if cfg.TokenStore == config.TokenStoreRedis {
		return tokenstore.NewRedisStore(tokenstore.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Key:      cfg.RedisKey,
			Timeout:  cfg.RequestTimeout(),
		}), nil
	}
	dir, err := config.StateDir(stateOverride)
	if err != nil {
		return nil, err
	}
	return tokenstore.FileStore{Path: filepath.Join(dir, "session.json")}, nil
}

// withRuntime opens the runtime, runs fn, and flushes metrics afterwards.
func (a App) withRuntime(g globalFlags, fn func(context.Context, *runtime) error) error {
	ctx := context.Background()
	rt, err := a.openRuntime(ctx, g)
	if err != nil {
		return err
	}
	defer rt.close()
	return fn(ctx, rt)
}

func stdinIsTerminal() bool {
	info, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
