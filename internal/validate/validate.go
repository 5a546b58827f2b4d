package validate

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"megastore/internal/apperr"

	validation "github.com/go-ozzo/ozzo-validation"
)

var (
	reQ  = regexp.MustCompile(`^[A-Za-z0-9 _'\\-]{1,50}$`)
	reID = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
)

// Check runs v.Validate and reports failures as a BadRequest whose message
// lists the offending fields.
func Check(v validation.Validatable) error {
	err := v.Validate()
	if err == nil {
		return nil
	}
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		return apperr.Wrap(apperr.BadRequest, verrs.Error(), err)
	}
	return apperr.Wrap(apperr.BadRequest, "Invalid request", err)
}

// NormalizeEmail is the single canonical form used for storage and lookup.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Q validates a search query: trims, enforces allowed characters and max length
func Q(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if len(s) > 50 {
		s = s[:50]
	}
	return s, reQ.MatchString(s)
}

func Qty(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 1
	}
	if n > 50 {
		return 50
	} // clamp to avoid abuse
	return n
}

// Page parses a 1-based page number.
func Page(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// ID validates a simple resource identifier (product/category/user ids).
func ID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reID.MatchString(s)
}

// Password enforces the policy for new passwords: 8-20 characters with a
// lower case letter, an upper case letter, a digit and a symbol.
func Password(s string) bool {
	l := len(s)
	if l < 8 || l > 20 {
		return false
	}
	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, r := range s {
		switch {
		case 'a' <= r && r <= 'z':
			hasLower = true
		case 'A' <= r && r <= 'Z':
			hasUpper = true
		case '0' <= r && r <= '9':
			hasDigit = true
		default:
			hasSymbol = true
		}
	}
	return hasLower && hasUpper && hasDigit && hasSymbol
}

var errWeakPassword = errors.New("must be 8-20 characters with upper and lower case letters, a digit and a symbol")

// StrongPassword is the ozzo rule form of Password.
var StrongPassword = validation.By(func(v any) error {
	s, _ := v.(string)
	if s == "" || Password(s) {
		return nil
	}
	return errWeakPassword
})
