package cache

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"
)

// RedisOption configures Redis cache.
type RedisOption func(*RedisConfig)

// RedisConfig describes the Redis node shared by the series cache and the
// scheduler job locks.
type RedisConfig struct {
	Host        string
	Port        int
	Password    string
	DB          int
	Prefix      string
	PoolSize    int
	DialTimeout time.Duration
	// LockOwner prefixes every lock token so a held lock names its replica.
	LockOwner string
}

func defaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		Host:        "localhost",
		Port:        6379,
		Prefix:      "brentcast",
		PoolSize:    10,
		DialTimeout: 5 * time.Second,
		LockOwner:   defaultLockOwner(),
	}
}

// Addr is the host:port the client dials.
func (c *RedisConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func defaultLockOwner() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "brentcast"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}

func WithRedisHost(host string) RedisOption {
	return func(c *RedisConfig) {
		if host != "" {
			c.Host = host
		}
	}
}

func WithRedisPort(port int) RedisOption {
	return func(c *RedisConfig) {
		if port > 0 {
			c.Port = port
		}
	}
}

func WithRedisPassword(password string) RedisOption {
	return func(c *RedisConfig) {
		c.Password = password
	}
}

func WithRedisDB(db int) RedisOption {
	return func(c *RedisConfig) {
		c.DB = db
	}
}

// WithRedisPrefix namespaces every key, e.g. "brentcast:series:BRENT".
func WithRedisPrefix(prefix string) RedisOption {
	return func(c *RedisConfig) {
		if prefix != "" {
			c.Prefix = prefix
		}
	}
}

// WithRedisLockOwner overrides the hostname-pid owner written into lock tokens.
func WithRedisLockOwner(owner string) RedisOption {
	return func(c *RedisConfig) {
		if owner != "" {
			c.LockOwner = owner
		}
	}
}

// MemoryOption configures Memory cache.
type MemoryOption func(*MemoryConfig)

// MemoryConfig bounds the in-process cache.
type MemoryConfig struct {
	MaxSize    int
	DefaultTTL time.Duration
}

func defaultMemoryConfig() *MemoryConfig {
	return &MemoryConfig{MaxSize: 1000}
}

// WithMemoryMaxSize bounds the number of entries; the least recently used is evicted.
func WithMemoryMaxSize(size int) MemoryOption {
	return func(c *MemoryConfig) {
		c.MaxSize = size
	}
}

// WithMemoryDefaultTTL applies when Set is called with a zero expiration.
func WithMemoryDefaultTTL(ttl time.Duration) MemoryOption {
	return func(c *MemoryConfig) {
		c.DefaultTTL = ttl
	}
}

// LayeredOption configures Layered cache.
type LayeredOption func(*LayeredConfig)

// LayeredConfig sizes the in-process layer in front of Redis.
type LayeredConfig struct {
	MemoryMaxSize int
	MemoryTTL     time.Duration
}

func defaultLayeredConfig() *LayeredConfig {
	return &LayeredConfig{MemoryMaxSize: 1000, MemoryTTL: time.Minute}
}

func WithLayeredMemorySize(size int) LayeredOption {
	return func(c *LayeredConfig) {
		if size > 0 {
			c.MemoryMaxSize = size
		}
	}
}

// WithLayeredMemoryTTL caps how long L1 serves a value read through from L2.
func WithLayeredMemoryTTL(ttl time.Duration) LayeredOption {
	return func(c *LayeredConfig) {
		c.MemoryTTL = ttl
	}
}
