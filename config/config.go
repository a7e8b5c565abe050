package config

import (
	"net"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
)

// Sink kinds accepted by -sink.
const (
	SinkFile     = "file"
	SinkSQLite   = "sqlite"
	SinkPostgres = "postgres"
	SinkMongo    = "mongo"
)

type Config struct {
	Host          string
	Port          int
	CORSOrigins   []string
	Sink          string
	LogPath       string
	Fsync         bool
	SQLitePath    string
	PostgresURL   string
	MongoURI      string
	MongoDatabase string
	MaxBodyBytes  int64
	Debug         bool
}

// Parse reads the command line in args (without the program name).
// Every flag falls back to a SURVEY_* environment variable, then to a built-in default.
func Parse(args []string) (cfg Config, err error) {
	fs := pflag.NewFlagSet("survey-intake", pflag.ContinueOnError)

	fs.StringVar(&cfg.Host, "host", env("SURVEY_HOST", "0.0.0.0"), "listen host name")
	fs.IntVar(&cfg.Port, "port", envInt("SURVEY_PORT", 5000), "listen port number")
	fs.StringSliceVar(&cfg.CORSOrigins, "cors-origins", envList("SURVEY_CORS_ORIGINS", []string{"*"}), "origins allowed to call /v1 endpoints")
	fs.StringVar(&cfg.Sink, "sink", env("SURVEY_SINK", SinkFile), "storage sink: file|sqlite|postgres|mongo")
	fs.StringVar(&cfg.LogPath, "log-path", env("SURVEY_LOG_PATH", "data/survey.ndjson"), "path of the append-only submissions file")
	fs.BoolVar(&cfg.Fsync, "fsync", envBool("SURVEY_FSYNC", false), "fsync the submissions file after every append")
	fs.StringVar(&cfg.SQLitePath, "sqlite-path", env("SURVEY_SQLITE_PATH", "survey.sqlite"), "path to SQLite3 DB file")
	fs.StringVar(&cfg.PostgresURL, "postgres-url", env("SURVEY_POSTGRES_URL", ""), "Postgres connection string")
	fs.StringVar(&cfg.MongoURI, "mongo-uri", env("SURVEY_MONGO_URI", ""), "MongoDB connection URI")
	fs.StringVar(&cfg.MongoDatabase, "mongo-database", env("SURVEY_MONGO_DATABASE", "survey"), "MongoDB database name")
	fs.Int64Var(&cfg.MaxBodyBytes, "max-body-bytes", envInt64("SURVEY_MAX_BODY_BYTES", 1<<20), "maximum accepted request body size")
	fs.BoolVar(&cfg.Debug, "debug", envBool("SURVEY_DEBUG", false), "log at DEBUG level")

	if err = fs.Parse(args); err != nil {
		return
	}
	err = cfg.Validate()
	return
}

func (cfg Config) Validate() error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return errors.Errorf("invalid port %d", cfg.Port)
	}
	if cfg.MaxBodyBytes <= 0 {
		return errors.New("max-body-bytes must be positive")
	}
	switch cfg.Sink {
	case SinkFile:
		if cfg.LogPath == "" {
			return errors.New("missing parameter -log-path")
		}
	case SinkSQLite:
		if cfg.SQLitePath == "" {
			return errors.New("missing parameter -sqlite-path")
		}
	case SinkPostgres:
		if cfg.PostgresURL == "" {
			return errors.New("missing parameter -postgres-url")
		}
	case SinkMongo:
		if cfg.MongoURI == "" {
			return errors.New("missing parameter -mongo-uri")
		}
		if cfg.MongoDatabase == "" {
			return errors.New("missing parameter -mongo-database")
		}
	default:
		return errors.Errorf("unknown sink %q", cfg.Sink)
	}
	return nil
}

func (cfg Config) Addr() string {
	return net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
}

func (cfg Config) URL() (url string) {
	url = cfg.Addr()
	url = regexp.MustCompile(`^0\.0\.0\.0`).ReplaceAllString(url, "localhost")
	url = "http://" + url
	return
}

func env(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v, err := strconv.Atoi(env(key, "")); err == nil {
		return v
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v, err := strconv.ParseInt(env(key, ""), 10, 64); err == nil {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(env(key, "")); err == nil {
		return v
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	raw := env(key, "")
	if raw == "" {
		return fallback
	}
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
