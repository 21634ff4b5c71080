package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port                   string   `mapstructure:"PORT"`
	Env                    string   `mapstructure:"ENV"`
	DatabaseURL            string   `mapstructure:"DATABASE_URL"`
	DBMaxConns             int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns             int32    `mapstructure:"DB_MIN_CONNS"`
	JWTSecret              string   `mapstructure:"JWT_SECRET"`
	DoctorAccessCode       string   `mapstructure:"DOCTOR_ACCESS_CODE"`
	DefaultPatientPassword string   `mapstructure:"DEFAULT_PATIENT_PASSWORD"`
	SMTPHost               string   `mapstructure:"SMTP_HOST"`
	SMTPPort               string   `mapstructure:"SMTP_PORT"`
	SMTPUser               string   `mapstructure:"SMTP_USER"`
	SMTPPass               string   `mapstructure:"SMTP_PASS"`
	SMTPFrom               string   `mapstructure:"SMTP_FROM"`
	AIEngineURL            string   `mapstructure:"AI_ENGINE_URL"`
	CORSOrigins            []string `mapstructure:"CORS_ORIGINS"`
	UploadDir              string   `mapstructure:"UPLOAD_DIR"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "5000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("DEFAULT_PATIENT_PASSWORD", "Medical@123")
	v.SetDefault("AI_ENGINE_URL", "http://127.0.0.1:5001")
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173")
	v.SetDefault("UPLOAD_DIR", "./uploads/reports")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("JWT_SECRET")
	v.BindEnv("DOCTOR_ACCESS_CODE")
	v.BindEnv("DEFAULT_PATIENT_PASSWORD")
	v.BindEnv("SMTP_HOST")
	v.BindEnv("SMTP_PORT")
	v.BindEnv("SMTP_USER")
	v.BindEnv("SMTP_PASS")
	v.BindEnv("SMTP_FROM")
	v.BindEnv("AI_ENGINE_URL")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("UPLOAD_DIR")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Validate checks that the configuration is safe to run. Outside development
// the token-signing secret and the doctor registration access code must be
// set so that authentication and doctor onboarding are actually enforced.
func (c *Config) Validate() error {
	if c.JWTSecret == "" && !c.IsDev() {
		return fmt.Errorf("JWT_SECRET is required outside development")
	}
	if c.DoctorAccessCode == "" && !c.IsDev() {
		return fmt.Errorf("DOCTOR_ACCESS_CODE is required outside development")
	}
	if c.SMTPHost != "" && c.SMTPFrom == "" && c.SMTPUser == "" {
		return fmt.Errorf("SMTP_FROM or SMTP_USER is required when SMTP_HOST is set")
	}
	return nil
}

// SMTPFromAddress returns the sender address for outbound mail. SMTP_FROM
// wins when set; otherwise the SMTP_USER account address is used, matching
// the common app-password setup.
func (c *Config) SMTPFromAddress() string {
	if c.SMTPFrom != "" {
		return c.SMTPFrom
	}
	return c.SMTPUser
}
