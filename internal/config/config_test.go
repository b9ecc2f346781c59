package config

import (
	"os"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestMain(m *testing.M) {
	os.Unsetenv("PORT")
	os.Exit(m.Run())
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Port != "8080" || cfg.GinMode != "release" || cfg.LogLevel != "info" {
		t.Fatalf("server defaults unexpected: %+v", cfg)
	}
	if cfg.APIBasePath != "/" {
		t.Fatalf("API_BASE_PATH default expected '/', got %q", cfg.APIBasePath)
	}
	if cfg.DBDriver != "sqlite" || cfg.DBPath != "collisions.db" || cfg.DatabaseURL != "" {
		t.Fatalf("store defaults unexpected: %+v", cfg)
	}
	if cfg.AlertMinProbability != 0.75 {
		t.Fatalf("ALERT_MIN_PROBABILITY default expected 0.75, got %v", cfg.AlertMinProbability)
	}
	if !reflect.DeepEqual(cfg.APIVersions, []string{"1.0"}) {
		t.Fatalf("API_VERSION default unexpected: %#v", cfg.APIVersions)
	}
	if cfg.RateRPS != 5 || cfg.RateBurst != 10 {
		t.Fatalf("rate defaults unexpected: %v/%v", cfg.RateRPS, cfg.RateBurst)
	}
	if cfg.ShutdownTimeout != 10*time.Second || cfg.IdempotencyTTL != 24*time.Hour {
		t.Fatalf("timeouts unexpected: shutdown=%v ttl=%v", cfg.ShutdownTimeout, cfg.IdempotencyTTL)
	}
	if cfg.CORS.AllowedOrigins != nil {
		t.Fatalf("CORS origins default unexpected: %#v", cfg.CORS.AllowedOrigins)
	}
	if cfg.OTEL.Enabled || cfg.OTEL.ServiceName != "go-collision-alerts" || cfg.OTEL.SampleRatio != 1 {
		t.Fatalf("OTEL defaults unexpected: %+v", cfg.OTEL)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "8088")
	t.Setenv("READ_TIMEOUT", "2s")
	t.Setenv("READ_HEADER_TIMEOUT", "1s")
	t.Setenv("WRITE_TIMEOUT", "3s")
	t.Setenv("IDLE_TIMEOUT", "4s")
	t.Setenv("SHUTDOWN_TIMEOUT", " 5s ")
	t.Setenv("MAX_HEADER_BYTES", "8192")
	t.Setenv("GIN_MODE", "weird")
	t.Setenv("LOG_LEVEL", "WARNING")
	t.Setenv("LOG_PRETTY", "yes")
	t.Setenv("SWAGGER_ENABLED", "On")
	t.Setenv("API_BASE_PATH", "api/v1/")
	t.Setenv("DB_DRIVER", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/collisions")
	t.Setenv("ALERT_MIN_PROBABILITY", "0.5")
	t.Setenv("API_VERSION", "1.0, 2.0")
	t.Setenv("RATE_RPS", "0.5")
	t.Setenv("RATE_BURST", "3")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://ops.example , , http://b ")
	t.Setenv("ENABLE_HSTS", "TRUE")
	t.Setenv("HSTS_MAX_AGE", "24h")
	t.Setenv("IDEMPOTENCY_TTL", "48h")
	t.Setenv("OTEL_ENABLED", "1")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "otel:4317")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "n")
	t.Setenv("OTEL_SERVICE_NAME", "svc")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.25")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Port != "8088" ||
		cfg.ReadTimeout != 2*time.Second ||
		cfg.ReadHeaderTimeout != time.Second ||
		cfg.WriteTimeout != 3*time.Second ||
		cfg.IdleTimeout != 4*time.Second ||
		cfg.ShutdownTimeout != 5*time.Second ||
		cfg.MaxHeaderBytes != 8192 ||
		cfg.GinMode != "release" {
		t.Fatalf("server fields unexpected: %+v", cfg)
	}
	if cfg.LogLevel != "warn" || !cfg.LogPretty || !cfg.SwaggerEnabled || cfg.APIBasePath != "/api/v1" {
		t.Fatalf("logging/docs unexpected: %+v", cfg)
	}
	if cfg.DBDriver != "postgres" || cfg.DatabaseURL != "postgres://u:p@db:5432/collisions" || cfg.AlertMinProbability != 0.5 {
		t.Fatalf("store fields unexpected: %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.APIVersions, []string{"1.0", "2.0"}) {
		t.Fatalf("api versions unexpected: %#v", cfg.APIVersions)
	}
	if cfg.RateRPS != 0.5 || cfg.RateBurst != 3 {
		t.Fatalf("rate limiting unexpected: %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.CORS.AllowedOrigins, []string{"https://ops.example", "http://b"}) {
		t.Fatalf("cors origins unexpected: %#v", cfg.CORS.AllowedOrigins)
	}
	if !cfg.Security.EnableHSTS || cfg.Security.HSTSMaxAge != 24*time.Hour {
		t.Fatalf("security unexpected: %+v", cfg.Security)
	}
	if cfg.IdempotencyTTL != 48*time.Hour {
		t.Fatalf("idempotency ttl unexpected: %v", cfg.IdempotencyTTL)
	}
	if !cfg.OTEL.Enabled || cfg.OTEL.Endpoint != "otel:4317" || cfg.OTEL.Insecure || cfg.OTEL.ServiceName != "svc" || cfg.OTEL.SampleRatio != 0.25 {
		t.Fatalf("otel unexpected: %+v", cfg.OTEL)
	}
}

func TestLoad_MalformedValuesAreErrors(t *testing.T) {
	cases := map[string]string{
		"RATE_RPS":         "x",
		"RATE_BURST":       "nope",
		"READ_TIMEOUT":     "15",
		"LOG_PRETTY":       "maybe",
		"MAX_HEADER_BYTES": "1MiB",
	}
	for k, v := range cases {
		t.Run(k, func(t *testing.T) {
			t.Setenv(k, v)
			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), k+"=") {
				t.Fatalf("expected parse error naming %s, got: %v", k, err)
			}
		})
	}
}

func TestLoad_ReportsEveryProblem(t *testing.T) {
	t.Setenv("RATE_BURST", "0")
	t.Setenv("ALERT_MIN_PROBABILITY", "2")
	t.Setenv("IDEMPOTENCY_TTL", "soon")

	_, err := Load()
	if err == nil {
		t.Fatalf("expected error")
	}
	for _, want := range []string{"RATE_BURST", "ALERT_MIN_PROBABILITY", `IDEMPOTENCY_TTL="soon"`} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q does not mention %s", err, want)
		}
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"invalid LOG_LEVEL", map[string]string{"LOG_LEVEL": "verbose"}, "LOG_LEVEL"},
		{"blank PORT", map[string]string{"PORT": "   "}, "PORT must not be empty"},
		{"zero timeout", map[string]string{"READ_TIMEOUT": "0s"}, "timeouts must be positive"},
		{"max header bytes", map[string]string{"MAX_HEADER_BYTES": "0"}, "MAX_HEADER_BYTES"},
		{"blank DB_PATH", map[string]string{"DB_PATH": "   "}, "DB_PATH must not be empty"},
		{"postgres without DSN", map[string]string{"DB_DRIVER": "postgres", "DATABASE_URL": ""}, "DATABASE_URL"},
		{"unknown DB_DRIVER", map[string]string{"DB_DRIVER": "mongo"}, "DB_DRIVER"},
		{"alert probability above 1", map[string]string{"ALERT_MIN_PROBABILITY": "1.5"}, "ALERT_MIN_PROBABILITY"},
		{"alert probability NaN", map[string]string{"ALERT_MIN_PROBABILITY": "NaN"}, "ALERT_MIN_PROBABILITY"},
		{"empty API_VERSION list", map[string]string{"API_VERSION": " , "}, "API_VERSION"},
		{"negative RATE_RPS", map[string]string{"RATE_RPS": "-1"}, "RATE_RPS"},
		{"RATE_BURST below 1", map[string]string{"RATE_BURST": "0"}, "RATE_BURST"},
		{"negative HSTS_MAX_AGE", map[string]string{"HSTS_MAX_AGE": "-1s"}, "HSTS_MAX_AGE"},
		{"zero IDEMPOTENCY_TTL", map[string]string{"IDEMPOTENCY_TTL": "0s"}, "IDEMPOTENCY_TTL"},
		{"sample ratio above 1", map[string]string{"OTEL_TRACES_SAMPLER_ARG": "1.5"}, "OTEL_TRACES_SAMPLER_ARG"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got: %v", tc.want, err)
			}
		})
	}
}

func TestLoad_MemoryDriverIgnoresPaths(t *testing.T) {
	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("DB_PATH", "   ")
	if _, err := Load(); err != nil {
		t.Fatalf("memory driver should not require DB_PATH: %v", err)
	}
}

func TestEnv_BlankMeansDefault(t *testing.T) {
	t.Setenv("X_BLANK", "  ")
	var e env
	if e.int("X_BLANK", 7) != 7 || e.dur("X_BLANK", time.Second) != time.Second || !e.bool("X_BLANK", true) {
		t.Fatalf("blank values should take the default")
	}
	if len(e.errs) != 0 {
		t.Fatalf("blank values should not be errors: %v", e.errs)
	}
}

func TestSplitCSVAndBasePath(t *testing.T) {
	if out := splitCSV(""); out != nil {
		t.Fatalf("splitCSV empty should return nil")
	}
	if got := splitCSV(" a, ,b ,  c  ,"); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("splitCSV mismatch: %#v", got)
	}

	for in, want := range map[string]string{
		"":        "/",
		" / ":     "/",
		"v1":      "/v1",
		"/v1/":    "/v1",
		"api/v2/": "/api/v2",
	} {
		if got := normalizeBasePath(in); got != want {
			t.Fatalf("normalizeBasePath(%q) = %q, want %q", in, got, want)
		}
	}
}
