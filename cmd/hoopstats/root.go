package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/agentuity/hoopstats/api"
	"github.com/agentuity/hoopstats/cache"
	"github.com/agentuity/hoopstats/env"
	"github.com/agentuity/hoopstats/logger"
	"github.com/agentuity/hoopstats/resource"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

var errUnavailable = errors.New("no data available, see the log for details")

// app holds what every command shares once configuration is resolved.
type app struct {
	out    io.Writer
	cfg    env.Config
	logger logger.Logger
	store  *cache.Store
	client *resource.Client
}

func (a *app) setup(cmd *cobra.Command) error {
	if file, _ := cmd.Flags().GetString("env-file"); file != "" {
		if _, err := env.LoadEnvFile(file); err != nil {
			return err
		}
	}
	a.logger = env.NewLogger(cmd)

	cfg, err := env.Load(env.FlagOrEnv(cmd, "config", "HOOPSTATS_CONFIG", ""))
	if err != nil {
		return err
	}
	cfg.Backend = env.FlagOrEnv(cmd, "backend", "", cfg.Backend)
	cfg.Path = env.FlagOrEnv(cmd, "cache-path", "", cfg.Path)
	cfg.RedisURL = env.FlagOrEnv(cmd, "redis-url", "", cfg.RedisURL)
	cfg.League = env.FlagOrEnv(cmd, "league", "", cfg.League)
	if s := env.FlagOrEnv(cmd, "timeout", "", ""); s != "" {
		d, err := env.ParseDuration(s)
		if err != nil {
			return errors.Wrap(err, "--timeout")
		}
		cfg.Timeout = env.Duration(d)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	policies, err := cfg.Policies()
	if err != nil {
		return err
	}
	area, err := openArea(cmd.Context(), cfg, a.logger)
	if err != nil {
		return err
	}
	a.store = cache.NewStore(cmd.Context(), area, storeOptions(cfg, a.logger)...)
	fetcher := api.New(a.logger, api.WithTimeout(cfg.Timeout.Std()))
	a.client = resource.New(a.store, fetcher, a.logger,
		resource.WithPolicies(policies),
		resource.WithEndpoints(cfg.Endpoints),
		resource.WithLeague(cfg.League),
	)
	if cfg.Backend == env.BackendRedis {
		a.logger.Debug("using redis cache at %s", env.MaskURL(cfg.RedisURL))
	} else {
		a.logger.Debug("using %s cache backend", cfg.Backend)
	}
	return nil
}

func (a *app) close() {
	if a.store == nil {
		return
	}
	if err := a.store.Close(); err != nil {
		a.logger.Warn("error closing cache: %s", err)
	}
	a.store = nil
}

// needsStore reports whether cmd reads the cache. Cobra's help and
// completion commands do not.
func needsStore(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "help", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd, "completion":
			return false
		}
	}
	return true
}

func (a *app) requestOptions(cmd *cobra.Command) []resource.RequestOption {
	if force, _ := cmd.Flags().GetBool("force"); force {
		return []resource.RequestOption{resource.ForceRefresh()}
	}
	return nil
}

// print writes v as indented JSON. A nil document means the fetch failed.
func (a *app) print(v any) error {
	switch val := v.(type) {
	case json.RawMessage:
		if val == nil {
			return errUnavailable
		}
		var buf bytes.Buffer
		if err := json.Indent(&buf, val, "", "  "); err != nil {
			return errors.Wrap(err, "formatting output")
		}
		buf.WriteByte('\n')
		_, err := a.out.Write(buf.Bytes())
		return err
	default:
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
}

// command builds a subcommand whose cache is closed when it returns.
func (a *app) command(use, short string, args cobra.PositionalArgs, run func(ctx context.Context, cmd *cobra.Command, args []string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			defer a.close()
			return run(cmd.Context(), cmd, args)
		},
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out}
	root := &cobra.Command{
		Use:           "hoopstats",
		Short:         "NBA scores, standings, players and news with a local TTL cache",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !needsStore(cmd) {
				return nil
			}
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			a.close()
			return nil
		},
	}
	root.SetOut(out)

	flags := root.PersistentFlags()
	flags.String("config", "", "path to a YAML configuration file (env HOOPSTATS_CONFIG)")
	flags.String("env-file", ".env", "dotenv file exported before configuration is read")
	flags.String("log-level", "", "log level: trace, debug, info, warn, error or none")
	flags.String("backend", "", "cache backend: memory, sqlite, redis or tiered")
	flags.String("cache-path", "", "sqlite database file")
	flags.String("redis-url", "", "redis url for the redis backend")
	flags.String("league", "", "league search results are limited to")
	flags.String("timeout", "", "upstream request timeout, e.g. 10s")
	flags.Bool("force", false, "skip the cache and fetch fresh data")

	root.AddCommand(
		scoreboardCmd(a),
		a.command("standings", "Show conference standings", cobra.NoArgs, func(ctx context.Context, cmd *cobra.Command, args []string) error {
			return a.print(a.client.Standings(ctx, a.requestOptions(cmd)...))
		}),
		a.command("search <query>", "Search current players by name", cobra.MinimumNArgs(1), func(ctx context.Context, cmd *cobra.Command, args []string) error {
			return a.print(a.client.SearchPlayers(ctx, joinArgs(args), a.requestOptions(cmd)...))
		}),
		a.command("player <id>", "Show a player's bio, season stats and game log", cobra.ExactArgs(1), func(ctx context.Context, cmd *cobra.Command, args []string) error {
			profile := a.client.PlayerProfile(ctx, args[0], a.requestOptions(cmd)...)
			if profile.Details == nil && profile.Stats == nil && profile.GameLog == nil {
				return errUnavailable
			}
			return a.print(profile)
		}),
		a.command("game <id>", "Show a game summary", cobra.ExactArgs(1), func(ctx context.Context, cmd *cobra.Command, args []string) error {
			return a.print(a.client.GameSummary(ctx, args[0], a.requestOptions(cmd)...))
		}),
		a.command("plays <id>", "Show a game's play-by-play grouped by period", cobra.ExactArgs(1), func(ctx context.Context, cmd *cobra.Command, args []string) error {
			periods := a.client.PlayByPlay(ctx, args[0], a.requestOptions(cmd)...)
			if periods == nil {
				return errUnavailable
			}
			return a.print(periods)
		}),
		a.command("news", "Show league news", cobra.NoArgs, func(ctx context.Context, cmd *cobra.Command, args []string) error {
			return a.print(a.client.News(ctx, a.requestOptions(cmd)...))
		}),
		leadersCmd(a),
		a.command("reddit", "Show the hot posts of the league subreddit", cobra.NoArgs, func(ctx context.Context, cmd *cobra.Command, args []string) error {
			return a.print(a.client.RedditFeed(ctx))
		}),
		cacheCmd(a),
	)
	return root
}

func scoreboardCmd(a *app) *cobra.Command {
	cmd := a.command("scoreboard", "Show today's games", cobra.NoArgs, func(ctx context.Context, cmd *cobra.Command, args []string) error {
		if watch, _ := cmd.Flags().GetBool("watch"); watch {
			return a.watchScoreboard(ctx)
		}
		return a.print(a.client.Scoreboard(ctx, a.requestOptions(cmd)...))
	})
	cmd.Flags().Bool("watch", false, "keep refreshing until interrupted")
	return cmd
}

func leadersCmd(a *app) *cobra.Command {
	cmd := a.command("leaders", "Show league statistical leaders", cobra.NoArgs, func(ctx context.Context, cmd *cobra.Command, args []string) error {
		if raw, _ := cmd.Flags().GetBool("raw"); raw {
			return a.print(a.client.StatLeaders(ctx, a.requestOptions(cmd)...))
		}
		categories := a.client.Leaders(ctx, a.requestOptions(cmd)...)
		if categories == nil {
			return errUnavailable
		}
		return a.print(categories)
	})
	cmd.Flags().Bool("raw", false, "print the upstream document unshaped")
	return cmd
}

func cacheCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage cached entries",
	}
	cmd.AddCommand(
		a.command("clear [key...]", "Remove the given entries, or every entry", cobra.ArbitraryArgs, func(ctx context.Context, cmd *cobra.Command, args []string) error {
			if err := a.client.Clear(ctx, args...); err != nil {
				return err
			}
			a.logger.Info("cache cleared")
			return nil
		}),
		a.command("keys", "List cached keys", cobra.NoArgs, func(ctx context.Context, cmd *cobra.Command, args []string) error {
			keys, err := a.store.Keys(ctx)
			if err != nil {
				return err
			}
			return a.print(keys)
		}),
		a.command("sweep", "Remove expired entries", cobra.NoArgs, func(ctx context.Context, cmd *cobra.Command, args []string) error {
			n, err := a.store.Sweep(ctx)
			if err != nil {
				return err
			}
			return a.print(map[string]int{"removed": n})
		}),
	)
	return cmd
}

func joinArgs(args []string) string {
	return strings.Join(args, " ")
}
