package cmd

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	errors "github.com/Laisky/errors/v2"
	gconfig "github.com/Laisky/go-config/v2"
)

// minSecretLength shortest accepted jwt secret
const minSecretLength = 16

// configGetter retrieves raw configuration values by dotted key path.
type configGetter func(key string) any

// validateStartupConfig validates startup configuration from the shared config source.
func validateStartupConfig() error {
	return validateStartupConfigWithGetter(func(key string) any {
		return gconfig.S.Get(key)
	})
}

// validateStartupConfigWithGetter validates startup configuration via a key-value getter.
// It returns nil when all configured values are valid.
func validateStartupConfigWithGetter(get configGetter) error {
	if get == nil {
		return errors.New("config getter is nil")
	}

	validationErrs := make([]string, 0)

	dry, _ := parseStrictBool(get("dry"))
	validateSecretConfig(get, &validationErrs)
	validateMongoConfig(get, dry, &validationErrs)
	validateRedisConfig(get, &validationErrs)
	validateMediaConfig(get, dry, &validationErrs)
	validateWebConfig(get, &validationErrs)
	validateOptionalIntMin(get, "settings.cache.blogs_ttl_seconds", 1, &validationErrs)

	if len(validationErrs) == 0 {
		return nil
	}

	return errors.Errorf("invalid configuration:\n - %s", strings.Join(validationErrs, "\n - "))
}

// validateSecretConfig requires a jwt secret long enough for HS256.
func validateSecretConfig(get configGetter, errs *[]string) {
	const key = "settings.secret"
	secret, err := parseStrictString(get(key))
	if err != nil || strings.TrimSpace(secret) == "" {
		appendValidationError(errs, "%s is required", key)
		return
	}

	if len(secret) < minSecretLength {
		appendValidationError(errs, "%s must be at least %d characters", key, minSecretLength)
	}
}

// validateMongoConfig validates the blog database, which is only required outside dry mode.
func validateMongoConfig(get configGetter, dry bool, errs *[]string) {
	if !dry {
		validateRequiredString(get, "settings.db.blog.addr", errs)
		validateRequiredString(get, "settings.db.blog.db", errs)
	}

	validateOptionalString(get, "settings.db.blog.user", errs)
	validateOptionalString(get, "settings.db.blog.pwd", errs)
	validateOptionalString(get, "settings.db.blog.auth_db", errs)
}

// validateRedisConfig validates redis-related startup configuration values.
func validateRedisConfig(get configGetter, errs *[]string) {
	validateOptionalString(get, "settings.db.redis.addr", errs)
	validateOptionalString(get, "settings.db.redis.pwd", errs)
	validateOptionalIntMin(get, "settings.db.redis.db", 0, errs)
}

// validateMediaConfig validates the object store and image limits.
func validateMediaConfig(get configGetter, dry bool, errs *[]string) {
	if !dry {
		validateRequiredString(get, "settings.media.s3.endpoint", errs)
		validateRequiredString(get, "settings.media.s3.bucket", errs)
	}

	validateOptionalHost(get, "settings.media.s3.endpoint", errs)
	validateOptionalString(get, "settings.media.s3.access_key", errs)
	validateOptionalString(get, "settings.media.s3.secret_key", errs)
	validateOptionalString(get, "settings.media.s3.prefix", errs)
	validateOptionalBool(get, "settings.media.s3.secure", errs)
	validateOptionalURL(get, "settings.media.s3.public_url", errs)
	validateOptionalIntMin(get, "settings.media.max_upload_mb", 1, errs)
	validateOptionalIntMin(get, "settings.media.max_width", 1, errs)
}

// validateWebConfig validates the http layer settings.
func validateWebConfig(get configGetter, errs *[]string) {
	validateOptionalBool(get, "settings.web.cookie_secure", errs)
	validateOptionalIntMin(get, "settings.web.token_ttl_hours", 1, errs)
	validateOptionalIntMin(get, "settings.web.ratelimit.rps", 1, errs)
	validateOptionalIntMin(get, "settings.web.ratelimit.burst", 1, errs)
	validateCORSOrigins(get, "settings.web.cors_origins", errs)
}

// validateCORSOrigins accepts a list of absolute origins, `*.domain` patterns or `*`.
func validateCORSOrigins(get configGetter, key string, errs *[]string) {
	raw := get(key)
	if raw == nil {
		return
	}

	var origins []string
	switch v := raw.(type) {
	case []string:
		origins = v
	case []any:
		for i, item := range v {
			s, err := parseStrictString(item)
			if err != nil {
				appendValidationError(errs, "%s[%d] must be a string", key, i)
				continue
			}
			origins = append(origins, s)
		}
	default:
		appendValidationError(errs, "%s must be a list of origins", key)
		return
	}

	for i, origin := range origins {
		origin = strings.TrimSpace(origin)
		switch {
		case origin == "*":
		case strings.HasPrefix(origin, "*."):
			if !isValidHost(strings.TrimPrefix(origin, "*.")) {
				appendValidationError(errs, "%s[%d] has an invalid domain", key, i)
			}
		default:
			parsed, err := url.Parse(origin)
			if err != nil || parsed.Scheme == "" || parsed.Host == "" ||
				strings.TrimSuffix(parsed.Path, "/") != "" {
				appendValidationError(errs, "%s[%d] must be like `https://example.com`", key, i)
			}
		}
	}
}

// validateOptionalBool validates an optionally configured boolean key.
func validateOptionalBool(get configGetter, key string, errs *[]string) {
	raw := get(key)
	if raw == nil {
		return
	}

	if _, ok := parseStrictBool(raw); !ok {
		appendValidationError(errs, "%s must be a boolean", key)
	}
}

// validateOptionalIntMin validates an optionally configured integer key with a minimum constraint.
func validateOptionalIntMin(get configGetter, key string, min int, errs *[]string) {
	raw := get(key)
	if raw == nil {
		return
	}

	value, parseErr := parseStrictInt(raw)
	if parseErr != nil {
		appendValidationError(errs, "%s must be an integer", key)
		return
	}

	if value < min {
		appendValidationError(errs, "%s must be >= %d", key, min)
	}
}

// validateOptionalURL validates an optionally configured absolute URL key.
func validateOptionalURL(get configGetter, key string, errs *[]string) {
	raw := get(key)
	if raw == nil {
		return
	}

	value, parseErr := parseStrictString(raw)
	if parseErr != nil {
		appendValidationError(errs, "%s must be a string URL", key)
		return
	}

	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return
	}

	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		appendValidationError(errs, "%s must be a valid absolute URL", key)
	}
}

// validateOptionalHost validates a host[:port] without scheme or path.
func validateOptionalHost(get configGetter, key string, errs *[]string) {
	raw := get(key)
	if raw == nil {
		return
	}

	value, parseErr := parseStrictString(raw)
	if parseErr != nil {
		appendValidationError(errs, "%s must be a string", key)
		return
	}

	if strings.TrimSpace(value) != "" && !isValidHost(value) {
		appendValidationError(errs, "%s must be like `host:port` without scheme", key)
	}
}

// validateOptionalString validates an optionally configured string key.
func validateOptionalString(get configGetter, key string, errs *[]string) {
	raw := get(key)
	if raw == nil {
		return
	}

	if _, err := parseStrictString(raw); err != nil {
		appendValidationError(errs, "%s must be a string", key)
	}
}

// validateRequiredString validates that key is a non-empty string.
func validateRequiredString(get configGetter, key string, errs *[]string) {
	raw := get(key)
	if raw == nil {
		appendValidationError(errs, "%s is required", key)
		return
	}

	text, parseErr := parseStrictString(raw)
	if parseErr != nil || strings.TrimSpace(text) == "" {
		appendValidationError(errs, "%s must be a non-empty string", key)
	}
}

// parseStrictBool parses a value as boolean using strict conversion rules.
// It returns the parsed boolean and whether parsing succeeded.
func parseStrictBool(value any) (bool, bool) {
	switch v := value.(type) {
	case bool:
		return v, true
	case int:
		return v != 0, true
	case int64:
		return v != 0, true
	case float64:
		if math.Trunc(v) != v {
			return false, false
		}
		return int64(v) != 0, true
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return false, false
		}
		switch strings.ToLower(trimmed) {
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

// isValidHost validates a host string without scheme or path components.
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

// appendValidationError appends a formatted validation error to the collector.
func appendValidationError(errs *[]string, format string, args ...any) {
	if errs == nil {
		return
	}
	*errs = append(*errs, fmt.Sprintf(format, args...))
}
