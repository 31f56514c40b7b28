package cmd

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	errors "github.com/Laisky/errors/v2"
	gconfig "github.com/Laisky/go-config/v2"
)

const dbTypeMongo = "mongo"

// configGetter retrieves raw configuration values by dotted key path.
type configGetter func(key string) any

// validateStartupConfig validates startup configuration from the shared config source.
func validateStartupConfig() error {
	return validateStartupConfigWithGetter(func(key string) any {
		return gconfig.S.Get(key)
	})
}

// validateStartupConfigWithGetter validates startup configuration via a key-value getter.
// Every problem is reported at once.
func validateStartupConfigWithGetter(get configGetter) error {
	if get == nil {
		return errors.New("config getter is nil")
	}

	validationErrs := make([]string, 0)

	validateSecretConfig(get, &validationErrs)
	validateBlogDBConfig(get, &validationErrs)
	validateSearchConfig(get, &validationErrs)
	validateWebConfig(get, &validationErrs)

	if len(validationErrs) == 0 {
		return nil
	}

	return errors.Errorf("invalid configuration:\n - %s", strings.Join(validationErrs, "\n - "))
}

func validateSecretConfig(get configGetter, errs *[]string) {
	raw := get("settings.secret")
	if raw == nil {
		appendValidationError(errs, "settings.secret is required")
		return
	}

	validateOptionalStringNonEmpty(get, "settings.secret", errs)
}

// validateBlogDBConfig validates the store type and the fields it needs.
func validateBlogDBConfig(get configGetter, errs *[]string) {
	const prefix = "settings.db.blog."

	dbType := "sqlite"
	if raw := get(prefix + "type"); raw != nil {
		value, err := parseStrictString(raw)
		if err != nil {
			appendValidationError(errs, "%stype must be a string", prefix)
			return
		}
		dbType = strings.TrimSpace(value)
	}

	switch dbType {
	case "sqlite":
		validateRequiredString(get, prefix+"dsn", errs)
	case "postgres":
		validateRequiredString(get, prefix+"addr", errs)
		validateRequiredString(get, prefix+"db", errs)
		validateOptionalIntRange(get, prefix+"port", 1, math.MaxUint16, errs)
	case dbTypeMongo:
		validateRequiredString(get, prefix+"addr", errs)
		validateRequiredString(get, prefix+"db", errs)
	default:
		appendValidationError(errs, "%stype must be one of sqlite/postgres/mongo, got %q", prefix, dbType)
	}
}

func validateSearchConfig(get configGetter, errs *[]string) {
	validateOptionalBool(get, "settings.search.case_insensitive", errs)
	validateOptionalIntRange(get, "settings.search.default_limit", 1, math.MaxInt32, errs)
	validateOptionalIntRange(get, "settings.search.max_limit", 1, math.MaxInt32, errs)

	defaultLimit, err1 := parseStrictInt(get("settings.search.default_limit"))
	maxLimit, err2 := parseStrictInt(get("settings.search.max_limit"))
	if err1 == nil && err2 == nil && maxLimit < defaultLimit {
		appendValidationError(errs,
			"settings.search.max_limit (%d) must be >= settings.search.default_limit (%d)",
			maxLimit, defaultLimit)
	}
}

func validateWebConfig(get configGetter, errs *[]string) {
	const key = "settings.web.cors.allowed_domains"
	raw := get(key)
	if raw == nil {
		return
	}

	var domains []string
	switch v := raw.(type) {
	case []string:
		domains = v
	case []any:
		for _, item := range v {
			s, err := parseStrictString(item)
			if err != nil {
				appendValidationError(errs, "%s must be a list of strings", key)
				return
			}
			domains = append(domains, s)
		}
	default:
		appendValidationError(errs, "%s must be a list of strings", key)
		return
	}

	for _, d := range domains {
		if !isValidHost(d) {
			appendValidationError(errs, "%s contains invalid domain %q", key, d)
		}
	}
}

func validateRequiredString(get configGetter, key string, errs *[]string) {
	if get(key) == nil {
		appendValidationError(errs, "%s is required", key)
		return
	}

	validateOptionalStringNonEmpty(get, key, errs)
}

// validateOptionalBool validates an optional boolean value.
func validateOptionalBool(get configGetter, key string, errs *[]string) {
	raw := get(key)
	if raw == nil {
		return
	}

	if _, ok := parseStrictBool(raw); !ok {
		appendValidationError(errs, "%s must be a boolean", key)
	}
}

// validateOptionalIntRange validates an optional integer within [min, max].
func validateOptionalIntRange(get configGetter, key string, min, max int, errs *[]string) {
	raw := get(key)
	if raw == nil {
		return
	}

	value, parseErr := parseStrictInt(raw)
	if parseErr != nil {
		appendValidationError(errs, "%s must be an integer", key)
		return
	}

	if value < min || value > max {
		appendValidationError(errs, "%s must be in [%d, %d]", key, min, max)
	}
}

// validateOptionalStringNonEmpty validates an optional non-blank string.
func validateOptionalStringNonEmpty(get configGetter, key string, errs *[]string) {
	raw := get(key)
	if raw == nil {
		return
	}

	value, parseErr := parseStrictString(raw)
	if parseErr != nil {
		appendValidationError(errs, "%s must be a string", key)
		return
	}

	if strings.TrimSpace(value) == "" {
		appendValidationError(errs, "%s must not be empty", key)
	}
}

// parseStrictBool parses a value as boolean using strict conversion rules.
func parseStrictBool(value any) (bool, bool) {
	switch v := value.(type) {
	case bool:
		return v, true
	case int:
		return v != 0, true
	case int64:
		return v != 0, true
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "1", "yes":
			return true, true
		case "false", "0", "no":
			return false, true
		default:
			return false, false
		}
	default:
		return false, false
	}
}

// parseStrictInt parses a value as a strict integer.
func parseStrictInt(value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if math.Trunc(v) != v {
			return 0, errors.Errorf("%v is not an integer", v)
		}
		return int(v), nil
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, errors.New("empty integer string")
		}
		parsed, err := strconv.Atoi(trimmed)
		if err != nil {
			return 0, errors.Wrap(err, "atoi")
		}
		return parsed, nil
	default:
		return 0, errors.Errorf("unsupported int type %T", value)
	}
}

// parseStrictString parses a value as a strict string.
func parseStrictString(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return "", errors.Errorf("unsupported string type %T", value)
	}
}

// isValidHost accepts a bare host without scheme or path.
func isValidHost(host string) bool {
	trimmed := strings.TrimSpace(host)
	if trimmed == "" {
		return false
	}
	if strings.Contains(trimmed, "://") || strings.Contains(trimmed, "/") {
		return false
	}
	return true
}

func appendValidationError(errs *[]string, format string, args ...any) {
	if errs == nil {
		return
	}
	*errs = append(*errs, fmt.Sprintf(format, args...))
}
