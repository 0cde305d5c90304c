package instance

import (
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPort is the port assumed when no archive URL is configured.
const DefaultRedisPort = 6379

// RedisHost returns the hostname a local archive is reachable on. Inside a
// container that is the host's published port via host.docker.internal.
func RedisHost() string {
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return "host.docker.internal"
	}
	return "localhost"
}

// RedisURL constructs the archive URL for a port on RedisHost.
func RedisURL(port int) string {
	return fmt.Sprintf("redis://%s:%d", RedisHost(), port)
}

// RedisOptions parses an archive URL. An empty URL points at the default
// local port.
func RedisOptions(url string) (*redis.Options, error) {
	if url == "" {
		url = RedisURL(DefaultRedisPort)
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url '%s': %w", url, err)
	}
	return opts, nil
}
