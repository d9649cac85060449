package postgres

import (
	"fmt"
)

type Config struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"sslmode"`
}

// String is the connection URL handed to pgxpool.
func (r *Config) String() string {
	sslmode := r.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s", r.User, r.Password, r.Host, r.Port, r.Database, sslmode)
}
