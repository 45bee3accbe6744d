package bootstrap

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigLayersFileAndEnv(t *testing.T) {
	path := writeConfig(t, `
service:
  id: care-test
  http_port: 8181
dependencies:
  postgres_url: postgres://file/db
  kafka_brokers: [k1:9092]
events:
  topics:
    care.request.needs_reassignment: reassign
missions:
  geofence_meters: 150
sweep:
  interval_seconds: 600
`)
	t.Setenv("DB_URL", "postgres://env/db")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092,")
	t.Setenv("SWEEP_INTERVAL_SECONDS", "120")
	t.Setenv("CHECKIN_WINDOW_MINUTES", "45")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ServiceID != "care-test" || cfg.HTTPPort != 8181 || cfg.GRPCPort != 9090 {
		t.Fatalf("unexpected service section: %+v", cfg)
	}
	if cfg.DatabaseURL != "postgres://env/db" {
		t.Fatalf("env should override file db url, got %s", cfg.DatabaseURL)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "b:9092" {
		t.Fatalf("unexpected brokers %v", cfg.KafkaBrokers)
	}
	if cfg.KafkaTopics["care.request.needs_reassignment"] != "reassign" {
		t.Fatalf("unexpected topics %v", cfg.KafkaTopics)
	}
	if cfg.GeofenceMeters != 150 {
		t.Fatalf("expected geofence 150, got %v", cfg.GeofenceMeters)
	}
	if cfg.SweepInterval != 2*time.Minute {
		t.Fatalf("expected env sweep interval, got %v", cfg.SweepInterval)
	}
	if cfg.CheckInTolerance != 45*time.Minute {
		t.Fatalf("expected 45m window, got %v", cfg.CheckInTolerance)
	}
	if cfg.MissionGracePeriod != 30*time.Minute || cfg.PriceTolerance != 20 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadConfigRequiresDatabase(t *testing.T) {
	t.Setenv("DB_URL", "")
	t.Setenv("DATABASE_URL", "")
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error without a database url")
	}
}

func TestLoadConfigRejectsMalformedFile(t *testing.T) {
	t.Setenv("DB_URL", "postgres://env/db")
	if _, err := LoadConfig(writeConfig(t, "service: [")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestSQLiteDSN(t *testing.T) {
	cases := map[string]struct {
		dsn string
		ok  bool
	}{
		"sqlite://care.db":          {"care.db", true},
		"sqlite:care.db":            {"care.db", true},
		"file:care.db?cache=shared": {"file:care.db?cache=shared", true},
		"postgres://u:p@db/care":    {"", false},
	}
	for url, want := range cases {
		dsn, ok := Config{DatabaseURL: url}.SQLiteDSN()
		if dsn != want.dsn || ok != want.ok {
			t.Fatalf("%s: got (%q,%v) want (%q,%v)", url, dsn, ok, want.dsn, want.ok)
		}
	}
}
