package links

import "errors"

// Error kinds returned by the mapping service. Callers classify them with
// errors.Is; most are wrapped with the offending value.
var (
	ErrValidation       = errors.New("invalid input")
	ErrReservedPath     = errors.New("path is reserved by the system")
	ErrMalformedExpiry  = errors.New("invalid expiry date")
	ErrMalformedQROrder = errors.New(`invalid qrOrder format, must be "1,2" or "2,1"`)
	ErrDuplicatePath    = errors.New("path already exists")
	ErrNotFound         = errors.New("mapping not found")
)

// IsClientError reports whether err was caused by bad caller input
// rather than a storage failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrReservedPath) ||
		errors.Is(err, ErrMalformedExpiry) ||
		errors.Is(err, ErrMalformedQROrder)
}
