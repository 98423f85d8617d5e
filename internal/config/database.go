package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/spf13/viper"
)

// Connection setting keys and the environment variables that override them.
const (
	KeyHost     = "host"
	KeyPort     = "port"
	KeyUser     = "user"
	KeyPassword = "password"
	KeyName     = "name"
	KeySSLMode  = "sslmode"
)

var envBindings = map[string]string{
	KeyHost:     "PG_Host",
	KeyPort:     "PG_Port",
	KeyUser:     "PG_User",
	KeyPassword: "PG_Password",
	KeyName:     "PG_DB",
	KeySSLMode:  "PG_SSLMode",
}

// NewDatabaseViper returns a viper instance with the connection defaults and
// environment bindings registered. Callers may bind flags to the same keys.
func NewDatabaseViper() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyHost, "localhost")
	v.SetDefault(KeyPort, 5432)
	v.SetDefault(KeyUser, "")
	v.SetDefault(KeyPassword, "")
	v.SetDefault(KeyName, "")
	v.SetDefault(KeySSLMode, "prefer")
	for key, env := range envBindings {
		// BindEnv only errors when called without a key.
		_ = v.BindEnv(key, env)
	}
	return v
}

// ResolveDatabase merges the file settings under v and returns the effective
// connection settings. Precedence: flag > environment > file > default.
func ResolveDatabase(v *viper.Viper, file DatabaseConfig) (DatabaseConfig, error) {
	fromFile := map[string]any{}
	if file.Host != "" {
		fromFile[KeyHost] = file.Host
	}
	if file.Port != 0 {
		fromFile[KeyPort] = file.Port
	}
	if file.User != "" {
		fromFile[KeyUser] = file.User
	}
	if file.Password != "" {
		fromFile[KeyPassword] = file.Password
	}
	if file.Name != "" {
		fromFile[KeyName] = file.Name
	}
	if file.SSLMode != "" {
		fromFile[KeySSLMode] = file.SSLMode
	}
	if err := v.MergeConfigMap(fromFile); err != nil {
		return DatabaseConfig{}, fmt.Errorf("merging database settings: %w", err)
	}

	port := v.GetInt(KeyPort)
	if port <= 0 || port > 65535 {
		return DatabaseConfig{}, fmt.Errorf("invalid database port %q", v.GetString(KeyPort))
	}

	password, err := ResolveValue(v.GetString(KeyPassword))
	if err != nil {
		return DatabaseConfig{}, fmt.Errorf("database password: %w", err)
	}

	return DatabaseConfig{
		Host:     v.GetString(KeyHost),
		Port:     port,
		User:     v.GetString(KeyUser),
		Password: password,
		Name:     v.GetString(KeyName),
		SSLMode:  v.GetString(KeySSLMode),
	}, nil
}

// DSN builds a postgres:// URL with the user and password escaped.
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:   "/" + d.Name,
	}
	if d.User != "" || d.Password != "" {
		u.User = url.UserPassword(d.User, d.Password)
	}
	if d.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {d.SSLMode}}.Encode()
	}
	return u.String()
}

// Redacted is the DSN with the password masked, for logs and diagnostics.
func (d DatabaseConfig) Redacted() string {
	if d.Password == "" {
		return d.DSN()
	}
	d.Password = "xxxxx"
	return d.DSN()
}
