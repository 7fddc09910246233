package links

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// expiryLayouts are tried in order. Layouts without a zone are interpreted
// in the service location.
var expiryLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
}

// ParseExpiry parses a user supplied expiry. A nil or blank value means the
// mapping never expires.
func ParseExpiry(raw *string, loc *time.Location) (*time.Time, error) {
	if raw == nil {
		return nil, nil
	}
	value := strings.TrimSpace(*raw)
	if value == "" {
		return nil, nil
	}

	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return &t, nil
	}
	for _, layout := range expiryLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrMalformedExpiry, value)
}

// ValidateQROrder checks that a display order is a permutation of the two
// QR slots. Blank means default order and is normalised to nil.
func ValidateQROrder(order *string) (*string, error) {
	if order == nil || strings.TrimSpace(*order) == "" {
		return nil, nil
	}

	parts := strings.Split(*order, ",")
	if len(parts) != 2 || parts[0] == parts[1] {
		return nil, fmt.Errorf("%w: %q", ErrMalformedQROrder, *order)
	}
	for _, p := range parts {
		if p != qrSlot1 && p != qrSlot2 {
			return nil, fmt.Errorf("%w: %q", ErrMalformedQROrder, *order)
		}
	}
	return order, nil
}

func validatePath(path string) error {
	if path == "" {
		return fmt.Errorf("%w: path is required", ErrValidation)
	}
	if strings.HasPrefix(path, "/") {
		return fmt.Errorf("%w: path must not start with '/'", ErrValidation)
	}
	for _, r := range path {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return fmt.Errorf("%w: path must not contain whitespace", ErrValidation)
		}
	}
	if IsReserved(path) {
		return fmt.Errorf("%w: %q", ErrReservedPath, path)
	}
	return nil
}

// optionalString turns blank strings into nil so they are stored as NULL.
func optionalString(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
