package database

import (
	"net"
	"net/url"
	"strconv"

	"github.com/faceofmind/admin-sync/internal/config"
)

// ApplicationName is reported to PostgreSQL for every connection.
const ApplicationName = "adminsync"

// BuildConnString builds a PostgreSQL connection URL from config.
// User and password are escaped.
func BuildConnString(cfg config.DBConfig) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = config.DefaultDBSSLMode
	}

	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:   "/" + cfg.Name,
	}
	q := url.Values{}
	q.Set("sslmode", sslMode)
	q.Set("application_name", ApplicationName)
	u.RawQuery = q.Encode()

	return u.String()
}
