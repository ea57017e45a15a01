package env

import (
	"os"
	"strings"
	"time"

	"github.com/agentuity/hoopstats/resource"
	cenv "github.com/caarlos0/env/v11"
	"github.com/cockroachdb/errors"
	"github.com/xhit/go-str2duration/v2"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every configuration environment variable.
const EnvPrefix = "HOOPSTATS_"

// Cache backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendTiered = "tiered"
)

// Duration is a time.Duration that also accepts day and week units such as
// "1d" or "1w2d".
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// ParseDuration parses s with day and week units allowed. A bare number is
// taken as minutes, matching how TTLs are usually written.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty duration")
	}
	if strings.Trim(s, "0123456789") == "" {
		s += "m"
	}
	d, err := str2duration.ParseDuration(s)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid duration %q", s)
	}
	return d, nil
}

// Config is the runtime configuration. Values are layered: defaults, then
// the YAML file, then HOOPSTATS_* environment variables, then command flags.
type Config struct {
	// Backend selects the storage area: memory, sqlite, redis or tiered.
	Backend string `yaml:"backend" env:"BACKEND"`
	// Path is the sqlite database file. Empty uses the user cache directory
	// and ":memory:" keeps the database in memory.
	Path string `yaml:"path" env:"CACHE_PATH"`
	// RedisURL is a redis:// URL used by the redis backend.
	RedisURL string `yaml:"redis_url" env:"REDIS_URL"`
	// Prefix namespaces every stored key.
	Prefix string `yaml:"prefix" env:"CACHE_PREFIX"`
	// Codec is the persisted entry encoding: json or msgpack.
	Codec string `yaml:"codec" env:"CODEC"`
	// Quota bounds the total bytes a memory area holds. Zero is unbounded.
	Quota int `yaml:"quota" env:"QUOTA"`
	// Sweep is the interval for removing expired entries. Zero disables it.
	Sweep Duration `yaml:"sweep" env:"SWEEP"`
	// Timeout bounds each upstream request.
	Timeout Duration `yaml:"timeout" env:"TIMEOUT"`
	// PollInterval is how often watched resources refresh.
	PollInterval Duration `yaml:"poll_interval" env:"POLL_INTERVAL"`
	// League is the league search results are filtered to.
	League string `yaml:"league" env:"LEAGUE"`
	// TTL overrides the lifetime of resource kinds, e.g. scoreboard: 2m.
	TTL map[string]string `yaml:"ttl" env:"TTL" envKeyValSeparator:"="`
	// Endpoints overrides upstream URLs.
	Endpoints resource.Endpoints `yaml:"endpoints" envPrefix:"ENDPOINT_"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Backend:      BackendTiered,
		Prefix:       "nba_stats_cache_",
		Codec:        "json",
		Timeout:      Duration(15 * time.Second),
		PollInterval: Duration(30 * time.Second),
		League:       resource.DefaultLeague,
	}
}

// Load builds the configuration from defaults, the YAML file at path (when
// path is not empty) and the environment. The result is not validated so
// that callers can layer flags on top before calling Validate.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		buf, err := os.ReadFile(path)
		if err != nil {
			return cfg, errors.Wrapf(err, "reading config %s", path)
		}
		if err := yaml.Unmarshal(buf, &cfg); err != nil {
			return cfg, errors.Wrapf(err, "parsing config %s", path)
		}
	}
	if err := cenv.ParseWithOptions(&cfg, cenv.Options{Prefix: EnvPrefix}); err != nil {
		return cfg, errors.Wrap(err, "reading environment")
	}
	return cfg, nil
}

// Validate checks the values that have a fixed set of choices.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendMemory, BackendSQLite, BackendRedis, BackendTiered:
	default:
		return errors.Newf("unknown backend %q", c.Backend)
	}
	if c.Backend == BackendRedis && c.RedisURL == "" {
		return errors.New("the redis backend requires a redis url")
	}
	switch c.Codec {
	case "json", "msgpack":
	default:
		return errors.Newf("unknown codec %q", c.Codec)
	}
	if c.Quota < 0 {
		return errors.Newf("quota must not be negative, got %d", c.Quota)
	}
	if _, err := c.Policies(); err != nil {
		return err
	}
	return nil
}

// Policies returns the default freshness table with the TTL overrides applied.
func (c Config) Policies() (resource.Policies, error) {
	p := resource.DefaultPolicies()
	for name, value := range c.TTL {
		d, err := ParseDuration(value)
		if err != nil {
			return nil, errors.Wrapf(err, "ttl for %s", name)
		}
		if err := p.Override(resource.Kind(name), d); err != nil {
			return nil, err
		}
	}
	return p, nil
}
