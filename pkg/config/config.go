package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env string `validate:"oneof=development production test"`

	Log       LogConfig
	Solver    SolverConfig
	Generator GeneratorConfig
	Output    OutputConfig
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig

	RunHistory RunHistoryConfig
	Snapshot   SnapshotConfig
}

type LogConfig struct {
	Level  string
	Format string `validate:"oneof=json console"`
}

// SolverConfig drives the generation loop.
type SolverConfig struct {
	InstancePath           string
	InstancesDir           string
	InitialSolutionDir     string
	Iterations             int `validate:"gte=1"`
	Seed                   int64
	OffspringPerGeneration int     `validate:"gte=0"`
	MutationRate           float64 `validate:"gte=0,lte=1"`
	EliminationRate        float64 `validate:"gte=0,lte=1"`
	TournamentSize         int     `validate:"gte=1"`
	Workers                int     `validate:"gte=1"`
}

// GeneratorConfig tunes the seeding worker pool.
type GeneratorConfig struct {
	Workers           int `validate:"gte=1"`
	MaxRetries        int `validate:"gte=1"`
	RetryDelay        time.Duration
	PlacementAttempts int `validate:"gte=1"`
}

// OutputConfig selects where and how the best timetable is written.
type OutputConfig struct {
	Dir     string
	Formats []string `validate:"dive,oneof=sol csv pdf"`
}

// ServerConfig toggles the status HTTP server.
type ServerConfig struct {
	Enabled        bool
	Port           int `validate:"gte=0,lte=65535"`
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// RunHistoryConfig gates persistence of run summaries in PostgreSQL.
type RunHistoryConfig struct {
	Enabled bool
}

// SnapshotConfig gates publishing of the best timetable to Redis.
type SnapshotConfig struct {
	Enabled bool
	Key     string
	TTL     time.Duration
}

// Load reads .env, environment and the given flags (flags win) into a validated Config.
func Load(flags *pflag.FlagSet) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Solver = SolverConfig{
		InstancePath:           v.GetString("SOLVER_INSTANCE"),
		InstancesDir:           v.GetString("SOLVER_INSTANCES_DIR"),
		InitialSolutionDir:     v.GetString("SOLVER_INITIAL_SOLUTIONS"),
		Iterations:             v.GetInt("SOLVER_ITERATIONS"),
		Seed:                   v.GetInt64("SOLVER_SEED"),
		OffspringPerGeneration: v.GetInt("SOLVER_OFFSPRING"),
		MutationRate:           v.GetFloat64("SOLVER_MUTATION_RATE"),
		EliminationRate:        v.GetFloat64("SOLVER_ELIMINATION_RATE"),
		TournamentSize:         v.GetInt("SOLVER_TOURNAMENT_SIZE"),
		Workers:                v.GetInt("SOLVER_WORKERS"),
	}

	cfg.Generator = GeneratorConfig{
		Workers:           v.GetInt("GENERATOR_WORKERS"),
		MaxRetries:        v.GetInt("GENERATOR_MAX_RETRIES"),
		RetryDelay:        parseDuration(v.GetString("GENERATOR_RETRY_DELAY"), 10*time.Millisecond),
		PlacementAttempts: v.GetInt("GENERATOR_PLACEMENT_ATTEMPTS"),
	}

	cfg.Output = OutputConfig{
		Dir:     v.GetString("OUTPUT_DIR"),
		Formats: splitAndTrim(v.GetString("OUTPUT_FORMATS")),
	}

	cfg.Server = ServerConfig{
		Enabled:        v.GetBool("ENABLE_STATUS_SERVER"),
		Port:           v.GetInt("PORT"),
		AllowedOrigins: splitAndTrim(v.GetString("CORS_ALLOWED_ORIGINS")),
	}

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.RunHistory = RunHistoryConfig{
		Enabled: v.GetBool("ENABLE_RUN_HISTORY"),
	}

	cfg.Snapshot = SnapshotConfig{
		Enabled: v.GetBool("ENABLE_SNAPSHOT_CACHE"),
		Key:     v.GetString("SNAPSHOT_KEY"),
		TTL:     parseDuration(v.GetString("SNAPSHOT_TTL"), 24*time.Hour),
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// RegisterFlags declares the command line overrides understood by Load.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.StringP("instance", "i", "", "path to the .ctt problem instance")
	flags.String("instances-dir", "", "solve every .ctt file of this directory and write allinstances.log")
	flags.String("initial-solutions", "", "directory of .sol files used to seed the first population")
	flags.IntP("iterations", "n", 0, "number of generations to run")
	flags.Int64("seed", 0, "random seed (0 derives one from the clock)")
	flags.String("output-dir", "", "directory for solution exports")
	flags.Bool("serve", false, "expose the status HTTP server while solving")
}

var flagKeys = map[string]string{
	"instance":          "SOLVER_INSTANCE",
	"instances-dir":     "SOLVER_INSTANCES_DIR",
	"initial-solutions": "SOLVER_INITIAL_SOLUTIONS",
	"iterations":        "SOLVER_ITERATIONS",
	"seed":              "SOLVER_SEED",
	"output-dir":        "OUTPUT_DIR",
	"serve":             "ENABLE_STATUS_SERVER",
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	var bindErr error
	flags.VisitAll(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok || !f.Changed || bindErr != nil {
			return
		}
		bindErr = v.BindPFlag(key, f)
	})
	return bindErr
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SOLVER_INSTANCE", "")
	v.SetDefault("SOLVER_INSTANCES_DIR", "")
	v.SetDefault("SOLVER_INITIAL_SOLUTIONS", "")
	v.SetDefault("SOLVER_ITERATIONS", 1000)
	v.SetDefault("SOLVER_SEED", 0)
	v.SetDefault("SOLVER_OFFSPRING", 20)
	v.SetDefault("SOLVER_MUTATION_RATE", 0.3)
	v.SetDefault("SOLVER_ELIMINATION_RATE", 0.1)
	v.SetDefault("SOLVER_TOURNAMENT_SIZE", 3)
	v.SetDefault("SOLVER_WORKERS", 4)

	v.SetDefault("GENERATOR_WORKERS", 4)
	v.SetDefault("GENERATOR_MAX_RETRIES", 5)
	v.SetDefault("GENERATOR_RETRY_DELAY", "10ms")
	v.SetDefault("GENERATOR_PLACEMENT_ATTEMPTS", 50)

	v.SetDefault("OUTPUT_DIR", "./solutions")
	v.SetDefault("OUTPUT_FORMATS", "sol,csv")

	v.SetDefault("ENABLE_STATUS_SERVER", false)
	v.SetDefault("PORT", 8080)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "ctt_evolver")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 4)
	v.SetDefault("DB_MAX_IDLE_CONNS", 2)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ENABLE_RUN_HISTORY", false)
	v.SetDefault("ENABLE_SNAPSHOT_CACHE", false)
	v.SetDefault("SNAPSHOT_KEY", "ctt:best")
	v.SetDefault("SNAPSHOT_TTL", "24h")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
