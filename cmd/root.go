/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "serialmon",
	Short: "Serial port monitor",
	Long: `serialmon opens, watches and writes to a serial port.

The selected port and baud rate are remembered between runs, so after
"serialmon select" and "serialmon baud" a plain "serialmon monitor"
reconnects to the same device.

Configuration is read from $XDG_CONFIG_HOME/serialmon/config.yaml and from
SERIALMON_* environment variables, e.g. SERIALMON_DRIVER=termios.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/serialmon/config.yaml)")
	rootCmd.PersistentFlags().String("driver", "bugst", "Serial driver: bugst, termios")
	rootCmd.PersistentFlags().String("state-file", "", "File remembering the selected port and baud rate")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-file", "", "Write logs to this file instead of stderr")

	viper.BindPFlag("driver", rootCmd.PersistentFlags().Lookup("driver"))
	viper.BindPFlag("state_file", rootCmd.PersistentFlags().Lookup("state-file"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_file", rootCmd.PersistentFlags().Lookup("log-file"))

	setDefaults(viper.GetViper())
}

// setDefaults registers every key so that SERIALMON_* variables reach
// Unmarshal even without a config file
func setDefaults(v *viper.Viper) {
	v.SetDefault("driver", "bugst")
	v.SetDefault("baud_rate", 0)
	v.SetDefault("state_file", "")
	v.SetDefault("log_level", "warn")
	v.SetDefault("log_file", "")
	v.SetDefault("probe_payload", "")
	v.SetDefault("timeout", "0s")
	v.SetDefault("http.addr", "127.0.0.1:8047")
	v.SetDefault("filter.vid", "")
	v.SetDefault("filter.pid", "")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if err := readConfig(viper.GetViper(), cfgFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading config: %v\n", err)
	}
}

func readConfig(v *viper.Viper, file string) error {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "serialmon"))
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("SERIALMON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file == "" && errors.As(err, &notFound) {
			return nil
		}
		return err
	}
	return nil
}

type appConfig struct {
	Driver       string        `mapstructure:"driver"`
	BaudRate     int           `mapstructure:"baud_rate"`
	StateFile    string        `mapstructure:"state_file"`
	LogLevel     string        `mapstructure:"log_level"`
	LogFile      string        `mapstructure:"log_file"`
	ProbePayload string        `mapstructure:"probe_payload"`
	Timeout      time.Duration `mapstructure:"timeout"`
	HTTP         struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"http"`
	Filter struct {
		VID string `mapstructure:"vid"`
		PID string `mapstructure:"pid"`
	} `mapstructure:"filter"`
}

func loadConfig(v *viper.Viper) (appConfig, error) {
	var cfg appConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}

	switch cfg.Driver {
	case "bugst", "termios":
	default:
		return cfg, fmt.Errorf("invalid configuration: unknown driver %q", cfg.Driver)
	}
	if cfg.BaudRate < 0 {
		return cfg, fmt.Errorf("invalid configuration: baud_rate must be positive")
	}
	return cfg, nil
}

// newLogger writes human readable logs to w, or JSON lines when w is a
// log file
func newLogger(level string, w io.Writer, console bool) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.WarnLevel
	}

	if console {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}
