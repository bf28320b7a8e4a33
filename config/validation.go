package config

import (
	"fmt"
	"regexp"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ConfigRequirements defines required configuration for each environment
type ConfigRequirements struct {
	RequirePostgresPassword bool
	RequireExplicitJWT      bool
	RequireRedis            bool
}

var (
	// Environment-specific requirements
	requirements = map[Environment]ConfigRequirements{
		Development: {},
		Test:        {},
		CI: {
			RequirePostgresPassword: true,
			RequireExplicitJWT:      true,
		},
		Production: {
			RequirePostgresPassword: true,
			RequireExplicitJWT:      true,
			RequireRedis:            true,
		},
	}

	portPattern = regexp.MustCompile(`^[0-9]{1,5}$`)
)

// ValidateConfig checks if the configuration meets the requirements for the current environment
func ValidateConfig(cfg *Config) error {
	env := GetEnvironment()
	reqs := requirements[env]

	var errs []ValidationError

	if !portPattern.MatchString(cfg.ServerPort) {
		errs = append(errs, ValidationError{"SERVER_PORT", "must be a port number"})
	}

	switch cfg.DBDriver {
	case "postgres":
		if cfg.DBHost == "" {
			errs = append(errs, ValidationError{"DB_HOST", "is required for postgres"})
		}
		if cfg.DBName == "" {
			errs = append(errs, ValidationError{"DB_NAME", "is required for postgres"})
		}
		if reqs.RequirePostgresPassword && cfg.DBPassword == "" {
			errs = append(errs, ValidationError{"DB_PASSWORD", "is required in " + string(env)})
		}
	case "sqlite":
		if env == Production {
			errs = append(errs, ValidationError{"DB_DRIVER", "sqlite is not supported in production"})
		}
		if cfg.SQLitePath == "" {
			errs = append(errs, ValidationError{"SQLITE_PATH", "is required for sqlite"})
		}
	default:
		errs = append(errs, ValidationError{"DB_DRIVER", fmt.Sprintf("unsupported driver %q", cfg.DBDriver)})
	}

	if cfg.JWTSecret == "" {
		errs = append(errs, ValidationError{"JWT_SECRET", "is required"})
	} else if reqs.RequireExplicitJWT && cfg.JWTSecret == "foodgram-dev-secret" {
		errs = append(errs, ValidationError{"JWT_SECRET", "development secret is not allowed in " + string(env)})
	}
	if cfg.JWTTTL <= 0 {
		errs = append(errs, ValidationError{"JWT_TTL", "must be positive"})
	}

	if reqs.RequireRedis && !cfg.RedisEnabled() {
		errs = append(errs, ValidationError{"REDIS_URL", "REDIS_URL or REDIS_HOST is required in " + string(env)})
	}

	if cfg.RecipeCreationLimit <= 0 {
		errs = append(errs, ValidationError{"RECIPE_CREATION_LIMIT", "must be positive"})
	}
	if cfg.RecipeModificationLimit <= 0 {
		errs = append(errs, ValidationError{"RECIPE_MODIFICATION_LIMIT", "must be positive"})
	}

	if len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(msgs, "\n"))
	}

	return nil
}
