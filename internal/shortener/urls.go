package shortener

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	validate     = validator.New()
	aliasPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{3,32}$`)
)

// reservedAliases collide with server routes.
var reservedAliases = map[string]struct{}{
	"api":          {},
	"docs":         {},
	"health":       {},
	"metrics":      {},
	"openapi":      {},
	"openapi.json": {},
	"schemas":      {},
}

// FormatURL trims the input, defaults the scheme to https and checks the result is a web URL.
func FormatURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidURL)
	}

	lower := strings.ToLower(raw)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		raw = "https://" + raw
	}

	if err := validate.Var(raw, "http_url"); err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidURL, raw)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidURL, raw)
	}

	host := u.Hostname()
	if host != "localhost" && !strings.Contains(host, ".") {
		return "", fmt.Errorf("%w: %s", ErrInvalidURL, raw)
	}

	return raw, nil
}

// ValidateAlias checks a user supplied alias.
func ValidateAlias(alias string) error {
	if !aliasPattern.MatchString(alias) {
		return fmt.Errorf("%w: must be 3-32 letters, digits, '-' or '_'", ErrInvalidAlias)
	}

	if _, ok := reservedAliases[strings.ToLower(alias)]; ok {
		return fmt.Errorf("%w: %q is reserved", ErrInvalidAlias, alias)
	}

	return nil
}
