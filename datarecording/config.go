package datarecording

import (
	"fmt"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
)

// The supported recorder types.
const (
	RecorderSQLite     = "sqlite"
	RecorderClickHouse = "clickhouse"
)

// RecorderConfig selects and configures a DataRecorder.
type RecorderConfig struct {
	// Type is RecorderSQLite or RecorderClickHouse. Empty means SQLite.
	Type string

	// Path is the SQLite database name without extension.
	Path string

	// ConnStr is a ClickHouse DSN. When set, it overrides the individual
	// connection parameters.
	ConnStr string

	Host     string
	Port     int
	Database string
	Username string
	Password string

	BatchSize int
}

// ParseTarget turns a recording target into a RecorderConfig. A
// clickhouse:// DSN selects ClickHouse; anything else is a SQLite path.
func ParseTarget(target string) RecorderConfig {
	if strings.HasPrefix(target, "clickhouse://") {
		return RecorderConfig{Type: RecorderClickHouse, ConnStr: target}
	}

	return RecorderConfig{Type: RecorderSQLite, Path: target}
}

// NewDataRecorderWithConfig creates the DataRecorder that the config
// selects.
func NewDataRecorderWithConfig(config RecorderConfig) DataRecorder {
	switch config.Type {
	case "", RecorderSQLite:
		return New(config.Path)
	case RecorderClickHouse:
		return NewClickHouseRecorder(config)
	}

	panic(fmt.Sprintf("unknown recorder type %q", config.Type))
}

func (c RecorderConfig) clickHouseOptions() (*clickhouse.Options, error) {
	if c.ConnStr != "" {
		options, err := clickhouse.ParseDSN(c.ConnStr)
		if err != nil {
			return nil, fmt.Errorf("invalid ClickHouse DSN: %w", err)
		}

		return options, nil
	}

	host := c.Host
	if host == "" {
		host = "localhost"
	}

	port := c.Port
	if port == 0 {
		port = 9000
	}

	return &clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", host, port)},
		Auth: clickhouse.Auth{
			Database: c.Database,
			Username: c.Username,
			Password: c.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout:      30 * time.Second,
		MaxOpenConns:     5,
		MaxIdleConns:     5,
		ConnMaxLifetime:  time.Hour,
		ConnOpenStrategy: clickhouse.ConnOpenInOrder,
	}, nil
}
