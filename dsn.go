package pgsession

import (
	"fmt"
	"net"
	"net/url"
)

// DSN renders the libpq connect URL for the config. The password is
// URL-escaped and sslmode falls back to disable when unset.
func (c Config) DSN() string {
	mode := c.SSLMode
	if mode == "" {
		mode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=%s",
		c.User,
		url.QueryEscape(c.Password),
		net.JoinHostPort(c.Host, c.Port),
		c.Service,
		mode,
	)
}
