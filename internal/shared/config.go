package shared

import (
	"errors"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
)

// Config holds the runtime settings of the extractor process.
type Config struct {
	DataDir        string
	AppEnv         string
	LogLevel       string
	RPS            int
	HTTPTimeout    time.Duration
	PushgatewayURL string
	MySQLDSN       string
	MySQLTable     string
}

type rawCfg struct {
	DataDir        string        `long:"data-dir" env:"KBC_DATADIR" default:"/data" description:"Data folder holding config.json and out/tables"`
	AppEnv         string        `long:"app-env" env:"APP_ENV" default:"prod" description:"dev switches to console logging"`
	LogLevel       string        `long:"log-level" env:"LOG_LEVEL" default:"info" description:"Log level"`
	RPS            int           `long:"rps" env:"SIRIUS_RPS" default:"5" description:"Outbound requests per second"`
	HTTPTimeout    time.Duration `long:"http-timeout" env:"SIRIUS_HTTP_TIMEOUT" default:"0s" description:"Per-request timeout, 0 disables it"`
	PushgatewayURL string        `long:"pushgateway-url" env:"PUSHGATEWAY_URL" description:"Pushgateway to receive run metrics (optional)"`
	MySQLDSN       string        `long:"mysql-dsn" env:"MYSQL_DSN" description:"Load records into MySQL as well (optional)"`
	MySQLTable     string        `long:"mysql-table" env:"MYSQL_TABLE" default:"sirius_reviews" description:"MySQL sink table"`
}

// ErrHelp is returned when --help was requested.
var ErrHelp = errors.New("help requested")

// Load parses flags and environment. args excludes the program name.
func Load(args []string) (Config, error) {
	var raw rawCfg
	parser := flags.NewParser(&raw, flags.Default)
	if _, err := parser.ParseArgs(args); err != nil {
		var fe *flags.Error
		if errors.As(err, &fe) && fe.Type == flags.ErrHelp {
			return Config{}, ErrHelp
		}
		return Config{}, fmt.Errorf("parse flags: %w", err)
	}

	c := Config{
		DataDir:        raw.DataDir,
		AppEnv:         raw.AppEnv,
		LogLevel:       raw.LogLevel,
		RPS:            raw.RPS,
		HTTPTimeout:    raw.HTTPTimeout,
		PushgatewayURL: raw.PushgatewayURL,
		MySQLDSN:       raw.MySQLDSN,
		MySQLTable:     raw.MySQLTable,
	}
	if c.RPS <= 0 {
		log.Warn().Int("rps", c.RPS).Msg("non-positive rps, using 5")
		c.RPS = 5
	}
	return c, nil
}
