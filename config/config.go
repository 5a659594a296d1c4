package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type MQConfig struct {
	URL string `yaml:"url"`
}

type JWTConfig struct {
	Secret string `yaml:"secret"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

// DripConfig controls the daily unlock schedule. Offsets are "HH:MM"
// wall-clock times in Timezone; all three must parse and be strictly
// increasing.
type DripConfig struct {
	UnlockTimes   []string      `yaml:"unlock_times"`
	Timezone      string        `yaml:"timezone"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

type Config struct {
	DB     DBConfig     `yaml:"db"`
	Redis  RedisConfig  `yaml:"redis"`
	MQ     MQConfig     `yaml:"mq"`
	JWT    JWTConfig    `yaml:"jwt"`
	Server ServerConfig `yaml:"server"`
	Drip   DripConfig   `yaml:"drip"`
}

func Load() *Config {
	f, err := os.Open("config.yaml")
	if err != nil {
		log.Fatalf("failed to open config.yaml: %v", err)
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		log.Fatalf("failed to decode config.yaml: %v", err)
	}

	overrideFromEnv(&cfg)
	applyDripDefaults(&cfg.Drip)

	if err := ValidateDrip(cfg.Drip); err != nil {
		log.Fatalf("invalid drip config: %v", err)
	}

	return &cfg
}

func applyDripDefaults(d *DripConfig) {
	if len(d.UnlockTimes) == 0 {
		d.UnlockTimes = []string{"09:00", "14:00", "18:45"}
	}
	if d.Timezone == "" {
		d.Timezone = "UTC"
	}
	if d.SweepInterval <= 0 {
		d.SweepInterval = 5 * time.Minute
	}
}

// ValidateDrip checks that the unlock times parse and increase.
func ValidateDrip(d DripConfig) error {
	if len(d.UnlockTimes) != 3 {
		return fmt.Errorf("expected 3 unlock times, got %d", len(d.UnlockTimes))
	}
	prev := -1
	for _, s := range d.UnlockTimes {
		var h, m int
		if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
			return fmt.Errorf("bad unlock time %q: %w", s, err)
		}
		if h < 0 || h > 23 || m < 0 || m > 59 {
			return fmt.Errorf("unlock time %q out of range", s)
		}
		if h*60+m <= prev {
			return fmt.Errorf("unlock times must be strictly increasing, got %v", d.UnlockTimes)
		}
		prev = h*60 + m
	}
	if _, err := time.LoadLocation(d.Timezone); err != nil {
		return fmt.Errorf("bad timezone %q: %w", d.Timezone, err)
	}
	return nil
}

func overrideFromEnv(cfg *Config) {
	if host := os.Getenv("DB_HOST"); host != "" {
		cfg.DB.Host = host
	}
	if port := os.Getenv("DB_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.DB.Port = p
		}
	}
	if user := os.Getenv("DB_USER"); user != "" {
		cfg.DB.User = user
	}
	if password := os.Getenv("DB_PASSWORD"); password != "" {
		cfg.DB.Password = password
	}
	if name := os.Getenv("DB_NAME"); name != "" {
		cfg.DB.Name = name
	}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
	}

	if url := os.Getenv("MQ_URL"); url != "" {
		cfg.MQ.URL = url
	}

	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.JWT.Secret = secret
	}

	if port := os.Getenv("SERVER_PORT"); port != "" {
		cfg.Server.Port = port
	}

	if tz := os.Getenv("DRIP_TIMEZONE"); tz != "" {
		cfg.Drip.Timezone = tz
	}
}
