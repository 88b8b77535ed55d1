// Package config carga la configuración en capas con koanf:
// valores por defecto, archivo YAML opcional y variables de entorno.
//
//	DATA_CREDITS_PATH=assets/tmdb_5000_credits.csv
//	ENGINE_TOP_N=10
//	SERVER_PORT=8000
//	MONGO_ENABLED=true MONGO_URI=mongodb://localhost:27017
//	NODE_ADDRESSES=nodo1:9000,nodo2:9001
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar permite indicar el archivo YAML.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultConfigPaths se revisan en orden si CONFIG_PATH no está definido.
var DefaultConfigPaths = []string{"config.yaml", "config.yml"}

type Config struct {
	Data    DataConfig    `koanf:"data"`
	Engine  EngineConfig  `koanf:"engine"`
	Server  ServerConfig  `koanf:"server"`
	Node    NodeConfig    `koanf:"node"`
	Mongo   MongoConfig   `koanf:"mongo"`
	Logging LoggingConfig `koanf:"logging"`
}

// DataConfig apunta a los dos CSV de TMDB.
type DataConfig struct {
	CreditsPath string `koanf:"credits_path" validate:"required"`
	MoviesPath  string `koanf:"movies_path" validate:"required"`
}

type EngineConfig struct {
	TopN              int     `koanf:"top_n" validate:"gte=1,lte=100"`
	Workers           int     `koanf:"workers" validate:"gte=0"`
	QualityPercentile float64 `koanf:"quality_percentile" validate:"gt=0,lte=1"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"gte=1,lte=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimit       int           `koanf:"rate_limit" validate:"gte=0"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// NodeConfig: Port es donde escucha cmd/nodo; Addresses son los nodos a
// los que la API reenvía consultas (vacío = motor local).
type NodeConfig struct {
	Port      int           `koanf:"port" validate:"gte=1,lte=65535"`
	Addresses []string      `koanf:"addresses"`
	Timeout   time.Duration `koanf:"timeout"`
}

type MongoConfig struct {
	Enabled     bool          `koanf:"enabled"`
	URI         string        `koanf:"uri" validate:"required_if=Enabled true"`
	Database    string        `koanf:"database" validate:"required_if=Enabled true"`
	Timeout     time.Duration `koanf:"timeout"`
	QueueSize   int           `koanf:"queue_size" validate:"gte=0"`
	BreakerTrip uint32        `koanf:"breaker_trip"`
}

type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn warning error fatal disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

func defaultConfig() *Config {
	return &Config{
		Data: DataConfig{
			CreditsPath: "assets/tmdb_5000_credits.csv",
			MoviesPath:  "assets/tmdb_5000_movies.csv",
		},
		Engine: EngineConfig{
			TopN:              10,
			Workers:           0, // 0 = runtime.NumCPU()
			QualityPercentile: 0.9,
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8000,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimit:       100,
			RateLimitWindow: time.Minute,
		},
		Node: NodeConfig{
			Port:    9000,
			Timeout: 5 * time.Second,
		},
		Mongo: MongoConfig{
			Enabled:     false,
			URI:         "mongodb://localhost:27017",
			Database:    "pcd",
			Timeout:     10 * time.Second,
			QueueSize:   1024,
			BreakerTrip: 5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load aplica las capas defaults → archivo → entorno y valida.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("cargando valores por defecto: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("leyendo %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("leyendo variables de entorno: %w", err)
	}

	for _, key := range []string{"server.cors_origins", "node.addresses"} {
		if s, ok := k.Get(key).(string); ok {
			if err := k.Set(key, splitList(s)); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("decodificando configuración: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New()

// Validate revisa las reglas declaradas en los tags validate.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("configuración inválida: %w", err)
	}
	return nil
}

// Addr es host:port del servidor HTTP.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// sections son los prefijos de variables de entorno que se reconocen.
var sections = []string{"data", "engine", "server", "node", "mongo", "logging"}

// envTransform convierte SERVER_READ_TIMEOUT en server.read_timeout.
// Las variables fuera de las secciones conocidas se descartan. PORT es
// atajo de node.port para levantar varios nodos en la misma máquina.
func envTransform(key string) string {
	key = strings.ToLower(key)
	switch key {
	case "port":
		return "node.port"
	case "log_level":
		return "logging.level"
	case "mongo_uri":
		return "mongo.uri"
	}
	for _, s := range sections {
		if strings.HasPrefix(key, s+"_") {
			return s + "." + strings.TrimPrefix(key, s+"_")
		}
	}
	return ""
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
