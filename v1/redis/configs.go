package redis

import "time"

// Defaults applied by NewClient to zero-valued fields.
const (
	DefaultHost        = "localhost"
	DefaultPort        = 6379
	DefaultDialTimeout = 5 * time.Second
	DefaultReadTimeout = 3 * time.Second
	DefaultKeyPrefix   = "vecsearch:emb:"
	DefaultTTL         = 24 * time.Hour
)

// Config holds the connection settings of the embedding cache.
type Config struct {
	// Host of the Redis server.
	// Default: "localhost"
	Host string `yaml:"host" envconfig:"HOST"`

	// Port of the Redis server.
	// Default: 6379
	Port int `yaml:"port" envconfig:"PORT"`

	// Username for Redis 6+ ACLs.
	Username string `yaml:"username" envconfig:"ACL_USERNAME"`

	// Password for authentication.
	Password string `yaml:"password" envconfig:"PASSWORD"`

	// DB is the logical database number.
	// Default: 0
	DB int `yaml:"db" envconfig:"DB"`

	// PoolSize is the maximum number of socket connections.
	// Default: 10 per CPU
	PoolSize int `yaml:"pool_size" envconfig:"POOL_SIZE"`

	// DialTimeout bounds establishing new connections.
	// Default: 5 seconds
	DialTimeout time.Duration `yaml:"dial_timeout" envconfig:"DIAL_TIMEOUT"`

	// ReadTimeout bounds socket reads.
	// Default: 3 seconds
	ReadTimeout time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`

	// WriteTimeout bounds socket writes.
	// Default: ReadTimeout
	WriteTimeout time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`

	// KeyPrefix namespaces every cache key.
	// Default: "vecsearch:emb:"
	KeyPrefix string `yaml:"key_prefix" envconfig:"KEY_PREFIX"`

	// TTL is the lifetime of a cached embedding. Negative means no expiry.
	// Default: 24 hours
	TTL time.Duration `yaml:"ttl" envconfig:"TTL"`
}

func (c Config) withDefaults() Config {
	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = DefaultDialTimeout
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	if c.KeyPrefix == "" {
		c.KeyPrefix = DefaultKeyPrefix
	}
	if c.TTL == 0 {
		c.TTL = DefaultTTL
	}
	if c.TTL < 0 {
		c.TTL = 0
	}
	return c
}
