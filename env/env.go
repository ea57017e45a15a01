package env

import (
	"log"
	"os"
	"strings"

	"github.com/agentuity/hoopstats/logger"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

type EnvLine struct {
	Key string `json:"key"`
	Val string `json:"val"`
}

// ParseEnvFile parses an environment file. A missing file yields no lines.
func ParseEnvFile(filename string) ([]EnvLine, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return []EnvLine{}, nil
	}
	buf, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", filename)
	}
	return ParseEnvBuffer(buf)
}

// LoadEnvFile exports the variables of an environment file into the process
// environment. Variables that are already set win over the file.
func LoadEnvFile(filename string) (int, error) {
	lines, err := ParseEnvFile(filename)
	if err != nil {
		return 0, err
	}
	var count int
	for _, line := range lines {
		if _, ok := os.LookupEnv(line.Key); ok {
			continue
		}
		if err := os.Setenv(line.Key, line.Val); err != nil {
			return count, errors.Wrapf(err, "setting %s", line.Key)
		}
		count++
	}
	return count, nil
}

func dequote(s string) string {
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

// ProcessEnvLine splits a KEY=value line. An optional "export " prefix is
// ignored and quotes around the value are removed.
func ProcessEnvLine(env string) EnvLine {
	env = strings.TrimPrefix(env, "export ")
	key, val, ok := strings.Cut(env, "=")
	if !ok {
		return EnvLine{Key: strings.TrimSpace(env)}
	}
	return EnvLine{Key: strings.TrimSpace(key), Val: dequote(strings.TrimSpace(val))}
}

// expand replaces ${NAME} and ${NAME:-default} references. NAME is looked up
// in vars, or in the process environment when written as env:NAME.
// Unresolved references without a default are kept verbatim.
func expand(val string, vars map[string]string) string {
	var b strings.Builder
	for {
		start := strings.Index(val, "${")
		if start < 0 {
			break
		}
		end := strings.IndexByte(val[start:], '}')
		if end < 0 {
			break
		}
		end += start
		b.WriteString(val[:start])
		b.WriteString(resolve(val[start:end+1], val[start+2:end], vars))
		val = val[end+1:]
	}
	b.WriteString(val)
	return b.String()
}

func resolve(ref, inner string, vars map[string]string) string {
	name, def, _ := strings.Cut(inner, ":-")
	if name == "" {
		return ref
	}
	var v string
	if key, ok := strings.CutPrefix(name, "env:"); ok {
		v = os.Getenv(key)
	} else {
		v = vars[name]
	}
	switch {
	case v != "":
		return v
	case def != "":
		return def
	}
	return ref
}

// ParseEnvBuffer parses dotenv content. Values may reference variables
// defined anywhere in the same buffer.
func ParseEnvBuffer(buf []byte) ([]EnvLine, error) {
	envs := []EnvLine{}
	vars := map[string]string{}
	for _, line := range strings.Split(string(buf), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		env := ProcessEnvLine(line)
		if env.Key == "" {
			continue
		}
		env.Val = expand(env.Val, vars)
		vars[env.Key] = env.Val
		envs = append(envs, env)
	}
	// forward references resolve once every line is known
	for i := range envs {
		envs[i].Val = expand(envs[i].Val, vars)
	}
	return envs, nil
}

// FlagOrEnv will try and get a flag from the cobra.Command and if not found, look it up in the environment
// and fallback to defaultValue if non found
func FlagOrEnv(cmd *cobra.Command, flagName string, envName string, defaultValue string) string {
	flagValue, _ := cmd.Flags().GetString(flagName)
	if flagValue != "" {
		return flagValue
	}
	if val, ok := os.LookupEnv(envName); ok && val != "" {
		return val
	}
	return defaultValue
}

func LogLevel(cmd *cobra.Command) logger.LogLevel {
	return logger.ParseLevel(FlagOrEnv(cmd, "log-level", logger.EnvLogLevel, "info"), logger.LevelInfo)
}

// NewLogger returns a console logger by first checking the cobra.Command log-level flag, then the
// HOOPSTATS_LOG_LEVEL environment value and falling back to the info logger level
func NewLogger(cmd *cobra.Command) logger.Logger {
	log.SetFlags(0)
	return logger.NewConsoleLogger(LogLevel(cmd))
}
