package workflow

import (
	"regexp"
	"strings"
	"time"

	"github.com/talentpivot/talentpivot/pkg/models"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^[0-9]{10}$`)
)

// ValidEmail reports whether email has a local part, an @ and a dotted domain.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(strings.TrimSpace(email))
}

// ValidPhone reports whether phone is exactly ten digits.
func ValidPhone(phone string) bool {
	return phonePattern.MatchString(strings.TrimSpace(phone))
}

// ParseDate parses a calendar date in models.DateLayout.
func ParseDate(value string) (time.Time, bool) {
	date, err := time.Parse(models.DateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, false
	}

	return date, true
}
