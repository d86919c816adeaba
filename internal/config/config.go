package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"go-migration-audit/internal/compliance"
	"go-migration-audit/internal/inventory"
	"go-migration-audit/internal/model"
	"go-migration-audit/pkg/apierror"
)

type Config struct {
	LogLevel   string
	LogFile    string
	LogNoColor bool

	PolicyFile string
	Policy     compliance.Policy
	Inventory  inventory.Options

	Mode           model.Mode
	BoxBaseURL     string
	BoxToken       string
	BoxTimeout     time.Duration
	RenameWorkers  int
	RenameRate     float64
	RenameAttempts int
	RenameBackoff  time.Duration

	AuditTrailFile string
	DatabaseURL    string
	DBMaxConns     int32
	DBMinConns     int32

	ServerPort              string
	ServerReadHeaderTimeout time.Duration
	ServerWriteTimeout      time.Duration
	ServerIdleTimeout       time.Duration
	RequestTimeout          time.Duration
	CORSOrigins             []string
	RateLimitRPM            int
	JWTSecret               string
	JWTTTL                  time.Duration
}

// Load reads .env and the process environment, then the policy file named
// by POLICY_FILE when set. Command flags are applied afterwards by the CLI.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		LogFile:    strings.TrimSpace(os.Getenv("LOG_FILE")),
		LogNoColor: getBool("LOG_NO_COLOR", false),

		PolicyFile: strings.TrimSpace(os.Getenv("POLICY_FILE")),
		Policy:     compliance.DefaultPolicy(),
		Inventory:  inventory.DefaultOptions(),

		Mode:           model.Mode(getEnv("AUDIT_MODE", string(model.ModeDryRun))),
		BoxBaseURL:     getEnv("BOX_API_BASE_URL", "https://api.box.com/2.0"),
		BoxToken:       strings.TrimSpace(os.Getenv("BOX_API_TOKEN")),
		BoxTimeout:     getDuration("BOX_API_TIMEOUT", 30*time.Second),
		RenameWorkers:  getInt("RENAME_WORKERS", 4),
		RenameRate:     getFloat("RENAME_RATE_PER_SECOND", 10),
		RenameAttempts: getInt("RENAME_MAX_ATTEMPTS", 3),
		RenameBackoff:  getDuration("RENAME_BACKOFF", 500*time.Millisecond),

		AuditTrailFile: getEnv("AUDIT_TRAIL_FILE", "./state/audit-trail.jsonl"),
		DatabaseURL:    strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DBMaxConns:     int32(getInt("DB_MAX_CONNS", 10)),
		DBMinConns:     int32(getInt("DB_MIN_CONNS", 1)),

		ServerPort:              getEnv("SERVER_PORT", "8080"),
		ServerReadHeaderTimeout: getDuration("SERVER_READ_HEADER_TIMEOUT", 10*time.Second),
		ServerWriteTimeout:      getDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
		ServerIdleTimeout:       getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
		RequestTimeout:          getDuration("REQUEST_TIMEOUT", 15*time.Second),
		CORSOrigins:             splitCSV(getEnv("CORS_ORIGINS", "*")),
		RateLimitRPM:            getInt("RATE_LIMIT_RPM", 120),
		JWTSecret:               strings.TrimSpace(os.Getenv("JWT_SECRET")),
		JWTTTL:                  getDuration("JWT_TTL", 24*time.Hour),
	}

	if owners := splitCSV(os.Getenv("AUTHORIZED_OWNERS")); len(owners) > 0 {
		cfg.Policy.AuthorizedOwners = owners
	}
	if excluded := splitCSV(os.Getenv("EXCLUDED_PATHS")); len(excluded) > 0 {
		cfg.Policy.ExcludedPathPrefixes = excluded
	}

	if cfg.PolicyFile != "" {
		if err := cfg.ApplyPolicyFile(cfg.PolicyFile); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// ApplyPolicyFile overlays the YAML policy file at path onto the config.
func (c *Config) ApplyPolicyFile(path string) error {
	file, err := LoadPolicyFile(path)
	if err != nil {
		return err
	}
	c.PolicyFile = path
	file.apply(&c.Policy, &c.Inventory)
	return nil
}

// ValidateAudit checks the settings the audit command depends on.
func (c *Config) ValidateAudit() error {
	if c.Mode != model.ModeDryRun && c.Mode != model.ModeApply {
		return apierror.Config("mode must be dry-run or apply", string(c.Mode))
	}

	if err := c.Policy.Validate(c.Mode); err != nil {
		return apierror.Config("invalid compliance policy", err.Error())
	}

	if err := c.Inventory.Validate(); err != nil {
		return apierror.Config("invalid inventory layout", err.Error())
	}

	if c.Mode == model.ModeApply && c.BoxToken == "" {
		return apierror.Config("BOX_API_TOKEN is required in apply mode", "")
	}

	if c.RenameWorkers <= 0 {
		return apierror.Config("RENAME_WORKERS must be positive", strconv.Itoa(c.RenameWorkers))
	}

	if c.RenameAttempts <= 0 {
		return apierror.Config("RENAME_MAX_ATTEMPTS must be positive", strconv.Itoa(c.RenameAttempts))
	}

	if c.RenameRate < 0 {
		return apierror.Config("RENAME_RATE_PER_SECOND must not be negative", "")
	}

	if c.DatabaseURL == "" && strings.TrimSpace(c.AuditTrailFile) == "" {
		return apierror.Config("AUDIT_TRAIL_FILE cannot be empty without DATABASE_URL", "")
	}

	return nil
}

// ValidateServe checks the settings of the report API.
func (c *Config) ValidateServe() error {
	if err := c.ValidateToken(); err != nil {
		return err
	}

	if c.ServerPort == "" {
		return apierror.Config("SERVER_PORT cannot be empty", "")
	}

	if c.RequestTimeout <= 0 {
		return apierror.Config("REQUEST_TIMEOUT must be positive", c.RequestTimeout.String())
	}

	if c.DatabaseURL == "" && strings.TrimSpace(c.AuditTrailFile) == "" {
		return apierror.Config("AUDIT_TRAIL_FILE cannot be empty without DATABASE_URL", "")
	}

	return nil
}

// ValidateToken checks the settings needed to sign report API tokens.
func (c *Config) ValidateToken() error {
	if len(c.JWTSecret) < 32 {
		return apierror.Config("JWT_SECRET must be at least 32 characters", "")
	}

	if c.JWTTTL <= 0 {
		return apierror.Config("JWT_TTL must be positive", c.JWTTTL.String())
	}

	return nil
}

func getEnv(key string, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}

	return v
}

func getInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return v
}

func getFloat(key string, fallback float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}

	return v
}

func getBool(key string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}

	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return v
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}

	return out
}
