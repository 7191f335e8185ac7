// Copyright (C) 2024 the quixsi maintainers
// See root-dir/LICENSE for more information

// Package config reads command settings from flags, CHECKIN_* environment
// variables and an optional .env file, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const EnvPrefix = "CHECKIN"

type Server struct {
	ServiceName       string `mapstructure:"service-name"`
	Addr              string `mapstructure:"addr"`
	DB                string `mapstructure:"db"`
	OTLPAddr          string `mapstructure:"otlp-grpc"`
	LogLevel          string `mapstructure:"log-level"`
	PublicURL         string `mapstructure:"public-url"`
	AdminUser         string `mapstructure:"admin-user"`
	AdminPassword     string `mapstructure:"admin-password"`
	DiscordBotToken   string `mapstructure:"discord-bot-token"`
	DiscordChannelID  string `mapstructure:"discord-channel-id"`
	MaxGuestsPerEvent int    `mapstructure:"max-guests-per-event"`
}

func ServerFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("server", pflag.ContinueOnError)
	flags.String("env-file", ".env", "optional dotenv file")
	flags.String("service-name", "checkin", "otel service name")
	flags.String("addr", "0.0.0.0:8080", "default server address")
	flags.String("db", "kvdb://testdata/checkin.db", "database connection string")
	flags.String("otlp-grpc", "", "default otlp/gRPC address, by default disabled. Example value: localhost:4317")
	flags.String("log-level", "INFO", "log level")
	flags.String("public-url", "http://localhost:8080", "public base url used in invitation links")
	flags.String("admin-user", "admin", "organizer api user")
	flags.String("admin-password", "admin", "organizer api password, plain or bcrypt hash")
	flags.String("discord-bot-token", "", "discord bot token for notifications")
	flags.String("discord-channel-id", "", "discord channel receiving notifications")
	flags.Int("max-guests-per-event", 0, "maximum active guests per event, 0 means unlimited")
	return flags
}

type Desk struct {
	ServerURL     string        `mapstructure:"server"`
	AdminUser     string        `mapstructure:"admin-user"`
	AdminPassword string        `mapstructure:"admin-password"`
	Event         string        `mapstructure:"event"`
	CameraDir     string        `mapstructure:"camera-dir"`
	ScanTimeout   time.Duration `mapstructure:"scan-timeout"`
	PageSize      int           `mapstructure:"page-size"`
	LogLevel      string        `mapstructure:"log-level"`
}

func DeskFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("checkin", pflag.ContinueOnError)
	flags.String("env-file", ".env", "optional dotenv file")
	flags.String("server", "http://localhost:8080", "organizer api base url")
	flags.String("admin-user", "admin", "organizer api user")
	flags.String("admin-password", "admin", "organizer api password")
	flags.String("event", "", "event id to check guests in for")
	flags.String("camera-dir", "capture", "directory the capture tool writes frames to")
	flags.Duration("scan-timeout", 30*time.Second, "give up scanning after this long")
	flags.Int("page-size", 10, "guests per page")
	flags.String("log-level", "WARN", "log level")
	return flags
}

type Convert struct {
	From     string `mapstructure:"from"`
	To       string `mapstructure:"to"`
	LogLevel string `mapstructure:"log-level"`
}

func ConvertFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("convert", pflag.ContinueOnError)
	flags.String("env-file", ".env", "optional dotenv file")
	flags.String("from", "json://testdata", "source database connection string")
	flags.String("to", "kvdb://output.db", "destination database connection string")
	flags.String("log-level", "INFO", "log level")
	return flags
}

// Load parses args into flags and decodes the merged settings into out.
func Load(flags *pflag.FlagSet, args []string, out any) error {
	if err := flags.Parse(args); err != nil {
		return err
	}
	if envFile, err := flags.GetString("env-file"); err == nil && envFile != "" {
		// NOTE: godotenv never overrides variables that are already set.
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(flags); err != nil {
		return err
	}
	if err := v.Unmarshal(out); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}
