// Package config loads runtime configuration from the environment, the way
// the teacher's cmd/termchat main.go does with getEnv, generalized to the
// numeric/duration helpers PufferBlow-media-sfu uses for its RTC_WS_*
// tuning knobs.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds every environment-tunable knob the server reads at startup.
type Config struct {
	Port            string
	ClientOrigin    string
	UploadDir       string
	MaxUploadBytes  int64
	RoomCapacity    int
	WSReadLimit     int64
	WSWriteTimeout  time.Duration
	WSPongWait      time.Duration
	WSPingInterval  time.Duration
	CreateRoomLimit int
}

// Load reads Config from the environment, falling back to production
// defaults for anything unset.
func Load() Config {
	return Config{
		Port:            envOrDefault("PORT", "3001"),
		ClientOrigin:    envOrDefault("CLIENT_ORIGIN", "*"),
		UploadDir:       envOrDefault("UPLOAD_DIR", "./uploads"),
		MaxUploadBytes:  envInt64OrDefault("MAX_UPLOAD_BYTES", 25*1024*1024),
		RoomCapacity:    envIntOrDefault("ROOM_CAPACITY", 10),
		WSReadLimit:     envInt64OrDefault("WS_READ_LIMIT_BYTES", 1<<20),
		WSWriteTimeout:  envDurationOrDefault("WS_WRITE_TIMEOUT", 10*time.Second),
		WSPongWait:      envDurationOrDefault("WS_PONG_WAIT", 60*time.Second),
		WSPingInterval:  envDurationOrDefault("WS_PING_INTERVAL", 54*time.Second),
		CreateRoomLimit: envIntOrDefault("CREATE_ROOM_LIMIT_PER_MINUTE", 20),
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOrDefault(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envInt64OrDefault(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func envDurationOrDefault(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
