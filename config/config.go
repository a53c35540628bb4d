/*
Package config loads the settings of the dtef command from defaults, an
optional configuration file and DTEF_ prefixed environment variables, in
increasing order of precedence.
*/
package config

import (
	"io"
	"io/ioutil"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
)

// EnvPrefix is the prefix of every environment variable.
const EnvPrefix = "DTEF"

// DefaultDB is the default database filename.
const DefaultDB = "dtef.db"

// Config holds the command settings.
type Config struct {
	DB       string `mapstructure:"db"`
	Verbose  bool   `mapstructure:"verbose"`
	LogLevel string `mapstructure:"log_level"`
	LogFile  string `mapstructure:"log_file"`
	// Log rotation, only used with LogFile
	LogMaxSize    int `mapstructure:"log_max_size"`
	LogMaxBackups int `mapstructure:"log_max_backups"`
}

// Load reads the configuration. file may be empty, otherwise it must exist;
// its format is taken from its extension.
func Load(file string) (*Config, error) {
	v := viper.New()

	v.SetDefault("db", DefaultDB)
	v.SetDefault("verbose", false)
	v.SetDefault("log_level", logrus.InfoLevel.String())
	v.SetDefault("log_file", "")
	v.SetDefault("log_max_size", 10)
	v.SetDefault("log_max_backups", 3)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	c := new(Config)
	if err := v.Unmarshal(c); err != nil {
		return nil, err
	}

	return c, nil
}

// Logger returns a logger configured from c. Unless verbose, everything is
// discarded.
func (c *Config) Logger() (*logrus.Logger, error) {
	logger := logrus.New()

	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	logger.SetLevel(level)

	var w io.Writer = ioutil.Discard
	switch {
	case c.LogFile != "":
		w = &lumberjack.Logger{
			Filename:   c.LogFile,
			MaxSize:    c.LogMaxSize,
			MaxBackups: c.LogMaxBackups,
		}
		logger.SetFormatter(&logrus.JSONFormatter{})
	case c.Verbose:
		w = os.Stderr
	}
	logger.SetOutput(w)

	return logger, nil
}
