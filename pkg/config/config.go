package config

import "time"

// ChatSession definition chat_session YAML structure
type ChatSession struct {
	Port string `mapstructure:"port"`

	Backend BackendConfig `mapstructure:"backend"`
	Session SessionConfig `mapstructure:"session"`
	Redis   RedisConfig   `mapstructure:"redis"`
}

// BackendConfig definition remote rental API setting
type BackendConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	SocketURL string        `mapstructure:"socket_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// SessionConfig definition persisted session record setting
type SessionConfig struct {
	// Key 對應登入流程寫入的 session key
	Key string        `mapstructure:"key"`
	TTL time.Duration `mapstructure:"ttl"`
}

// RedisConfig definition redis setting
type RedisConfig struct {
	RedisDB int `mapstructure:"redis_db"`
}
