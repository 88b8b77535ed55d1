package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

// clearEnv evita que variables del entorno del desarrollador cambien
// el resultado.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		ConfigPathEnvVar, "PORT", "LOG_LEVEL", "MONGO_URI",
		"DATA_CREDITS_PATH", "DATA_MOVIES_PATH", "ENGINE_TOP_N", "ENGINE_WORKERS",
		"SERVER_PORT", "SERVER_CORS_ORIGINS", "NODE_ADDRESSES", "MONGO_ENABLED",
		"MONGO_DATABASE", "LOGGING_LEVEL", "LOGGING_FORMAT",
	} {
		if v, ok := os.LookupEnv(k); ok {
			os.Unsetenv(k)
			t.Cleanup(func() { os.Setenv(k, v) })
		}
	}
	t.Chdir(t.TempDir())
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Engine.TopN != 10 {
		t.Errorf("TopN = %d, want 10", cfg.Engine.TopN)
	}
	if cfg.Engine.QualityPercentile != 0.9 {
		t.Errorf("QualityPercentile = %v, want 0.9", cfg.Engine.QualityPercentile)
	}
	if cfg.Server.ReadTimeout != 10*time.Second {
		t.Errorf("ReadTimeout = %v", cfg.Server.ReadTimeout)
	}
	if cfg.Mongo.Enabled {
		t.Error("mongo habilitado por defecto")
	}
	if cfg.Addr() != "0.0.0.0:8000" {
		t.Errorf("Addr = %q", cfg.Addr())
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	yaml := `
engine:
  top_n: 5
  workers: 2
server:
  port: 8080
  write_timeout: 45s
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("ENGINE_TOP_N", "7")
	t.Setenv("NODE_ADDRESSES", "nodo1:9000, nodo2:9001")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Engine.TopN != 7 {
		t.Errorf("TopN = %d, want 7 (env sobre archivo)", cfg.Engine.TopN)
	}
	if cfg.Engine.Workers != 2 {
		t.Errorf("Workers = %d, want 2", cfg.Engine.Workers)
	}
	if cfg.Server.Port != 8080 || cfg.Server.WriteTimeout != 45*time.Second {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Level = %q", cfg.Logging.Level)
	}
	want := []string{"nodo1:9000", "nodo2:9001"}
	if !reflect.DeepEqual(cfg.Node.Addresses, want) {
		t.Errorf("Addresses = %v, want %v", cfg.Node.Addresses, want)
	}
}

func TestLoadInvalid(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENGINE_TOP_N", "0")

	if _, err := Load(); err == nil {
		t.Fatal("se esperaba error con top_n = 0")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"sin credits", func(c *Config) { c.Data.CreditsPath = "" }, true},
		{"percentil cero", func(c *Config) { c.Engine.QualityPercentile = 0 }, true},
		{"puerto fuera de rango", func(c *Config) { c.Server.Port = 70000 }, true},
		{"formato desconocido", func(c *Config) { c.Logging.Format = "xml" }, true},
		{"mongo sin uri", func(c *Config) { c.Mongo.Enabled = true; c.Mongo.URI = "" }, true},
		{"mongo deshabilitado sin uri", func(c *Config) { c.Mongo.URI = "" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEnvTransform(t *testing.T) {
	tests := map[string]string{
		"DATA_CREDITS_PATH":   "data.credits_path",
		"SERVER_READ_TIMEOUT": "server.read_timeout",
		"PORT":                "node.port",
		"MONGO_URI":           "mongo.uri",
		"HOME":                "",
		"PATH":                "",
	}
	for in, want := range tests {
		if got := envTransform(in); got != want {
			t.Errorf("envTransform(%q) = %q, want %q", in, got, want)
		}
	}
}
