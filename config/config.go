package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type AppConfig struct {
	App struct {
		Name string `mapstructure:"NAME"`
		Port string `mapstructure:"PORT"`
	}

	DATABASE struct {
		Postgres struct {
			DSN string `mapstructure:"URL"`
		}
		Redis struct {
			Addr     string `mapstructure:"ADDR"`
			Password string `mapstructure:"PASSWORD"`
		}
		Mongo struct {
			Url      string `mapstructure:"URL"`
			Database string `mapstructure:"DATABASE"`
		}
	}

	CHAT struct {
		// PresenceNotifySelf controls whether join/leave presence events are
		// echoed back to the session that caused them. The legacy web
		// clients were inconsistent about this, so it is an option.
		PresenceNotifySelf bool   `mapstructure:"PRESENCE_NOTIFY_SELF"`
		MonitorRoom        string `mapstructure:"MONITOR_ROOM"`
		SendBuffer         int    `mapstructure:"SEND_BUFFER"`
		HistoryPageSize    int    `mapstructure:"HISTORY_PAGE_SIZE"`
		MaxConnections     int    `mapstructure:"MAX_CONNECTIONS"`
		ConnectionsPerIP   int    `mapstructure:"CONNECTIONS_PER_IP"`
	}

	WORKER struct {
		PoolSize    int           `mapstructure:"POOL_SIZE"`
		MaxRetry    int           `mapstructure:"MAX_RETRY"`
		JobLifetime time.Duration `mapstructure:"JOB_LIFETIME"`
	}
}

var Conf *AppConfig

func LoadConfig() error {
	viper.SetConfigName("application")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("CHATAPP")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	var config AppConfig
	if err := viper.Unmarshal(&config); err != nil {
		return fmt.Errorf("error unmarshalling config: %w", err)
	}

	applyDefaults(&config)

	Conf = &config
	log.Info().Msg("configuration loaded...")
	return nil
}

func applyDefaults(c *AppConfig) {
	if c.CHAT.MonitorRoom == "" {
		c.CHAT.MonitorRoom = "ADMIN_MONITOR"
	}
	if c.CHAT.SendBuffer <= 0 {
		c.CHAT.SendBuffer = 256
	}
	if c.CHAT.HistoryPageSize <= 0 {
		c.CHAT.HistoryPageSize = 50
	}
	if c.CHAT.MaxConnections <= 0 {
		c.CHAT.MaxConnections = 10000
	}
	if c.CHAT.ConnectionsPerIP <= 0 {
		c.CHAT.ConnectionsPerIP = 20
	}
	if c.WORKER.PoolSize <= 0 {
		c.WORKER.PoolSize = 5
	}
	if c.WORKER.MaxRetry <= 0 {
		c.WORKER.MaxRetry = 3
	}
	if c.WORKER.JobLifetime <= 0 {
		c.WORKER.JobLifetime = time.Minute
	}
}
