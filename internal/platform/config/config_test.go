package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"ADDR", "IDLE_TIMEOUT", "SHUTDOWN_TIMEOUT", "DB_DRIVER", "CACHE_ENABLED", "KAFKA_ENABLED", "CODE_GENERATOR", "CODE_LENGTH", "LOG_LEVEL"} {
		t.Setenv(k, "")
	}

	cfg := Load()

	if cfg.Addr != ":8000" {
		t.Fatalf("Addr: got %q", cfg.Addr)
	}
	if cfg.IdleTimeout != 60*time.Second || cfg.ShutdownTimeout != 10*time.Second {
		t.Fatalf("timeouts: got %v / %v", cfg.IdleTimeout, cfg.ShutdownTimeout)
	}
	if cfg.DBDriver != "postgres" {
		t.Fatalf("DBDriver: got %q", cfg.DBDriver)
	}
	if cfg.CacheEnabled || cfg.KafkaEnabled {
		t.Fatal("cache and kafka should be disabled by default")
	}
	if cfg.CodeGenerator != "uuid" || cfg.CodeLength != 6 {
		t.Fatalf("generator: got %q/%d", cfg.CodeGenerator, cfg.CodeLength)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Fatalf("LogLevel: got %v", cfg.LogLevel)
	}
}

func TestLoad_ReadsEnv(t *testing.T) {
	t.Setenv("ADDR", ":18080")
	t.Setenv("IDLE_TIMEOUT", "2m")
	t.Setenv("WRITE_TIMEOUT", "6s")
	t.Setenv("LOG_LEVEL", "WARN")
	t.Setenv("JWT_TTL", "30m")
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("DB_DSN", ":memory:")
	t.Setenv("DB_AUTO_MIGRATE", "false")
	t.Setenv("CACHE_ENABLED", "true")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("KAFKA_ENABLED", "TRUE")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("CODE_GENERATOR", "sqids")
	t.Setenv("CODE_LENGTH", "8")

	cfg := Load()

	if cfg.Addr != ":18080" || cfg.IdleTimeout != 2*time.Minute || cfg.WriteTimeout != 6*time.Second {
		t.Fatalf("server settings not applied: %+v", cfg)
	}
	if cfg.LogLevel != slog.LevelWarn {
		t.Fatalf("LogLevel: got %v", cfg.LogLevel)
	}
	if cfg.JWTTTL != 30*time.Minute {
		t.Fatalf("JWTTTL: got %v", cfg.JWTTTL)
	}
	if cfg.DBDriver != "sqlite" || cfg.DBDSN != ":memory:" || cfg.DBAutoMigrate {
		t.Fatalf("db settings: %q %q %v", cfg.DBDriver, cfg.DBDSN, cfg.DBAutoMigrate)
	}
	if !cfg.CacheEnabled || cfg.RedisDB != 3 {
		t.Fatalf("cache settings: %v %d", cfg.CacheEnabled, cfg.RedisDB)
	}
	if !cfg.KafkaEnabled || len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "k2:9092" {
		t.Fatalf("kafka settings: %v %v", cfg.KafkaEnabled, cfg.KafkaBrokers)
	}
	if cfg.CodeGenerator != "sqids" || cfg.CodeLength != 8 {
		t.Fatalf("generator: %q/%d", cfg.CodeGenerator, cfg.CodeLength)
	}
}

func TestLoad_IgnoresBadValues(t *testing.T) {
	t.Setenv("IDLE_TIMEOUT", "soon")
	t.Setenv("REDIS_DB", "-1")
	t.Setenv("CODE_LENGTH", "zero")
	t.Setenv("CACHE_ENABLED", "maybe")

	cfg := Load()

	if cfg.IdleTimeout != 60*time.Second {
		t.Errorf("IdleTimeout: got %v", cfg.IdleTimeout)
	}
	if cfg.RedisDB != 0 {
		t.Errorf("RedisDB: got %d", cfg.RedisDB)
	}
	if cfg.CodeLength != 6 {
		t.Errorf("CodeLength: got %d", cfg.CodeLength)
	}
	if cfg.CacheEnabled {
		t.Error("CacheEnabled should keep default")
	}
}
