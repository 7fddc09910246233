package links

import "strings"

// reservedPaths collide with system routes and static assets and can never
// be assigned to a mapping.
var reservedPaths = map[string]struct{}{
	"login":              {},
	"admin":              {},
	"__total_count":      {},
	"api":                {},
	"health":             {},
	"ping":               {},
	"static":             {},
	"admin.html":         {},
	"login.html":         {},
	"daisyui@5.css":      {},
	"tailwindcss@4.js":   {},
	"qr-code-styling.js": {},
	"zxing.js":           {},
	"robots.txt":         {},
	"wechat.svg":         {},
	"favicon.svg":        {},
	"favicon.ico":        {},
}

// apiPrefix is routed to the admin API before any mapping lookup happens.
const apiPrefix = "api/"

// IsReserved reports whether path belongs to the system.
func IsReserved(path string) bool {
	if _, ok := reservedPaths[path]; ok {
		return true
	}
	return strings.HasPrefix(path, apiPrefix)
}

// Exclusion names the paths a listing leaves out, by exact name or prefix.
type Exclusion struct {
	Paths    []string
	Prefixes []string
}

// Excludes reports whether path is left out by e.
func (e Exclusion) Excludes(path string) bool {
	for _, p := range e.Paths {
		if p == path {
			return true
		}
	}
	for _, prefix := range e.Prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// ReservedExclusion covers every path IsReserved reports.
func ReservedExclusion() Exclusion {
	return Exclusion{Paths: ReservedPaths(), Prefixes: []string{apiPrefix}}
}

// ReservedPaths returns the reserved names.
func ReservedPaths() []string {
	paths := make([]string, 0, len(reservedPaths))
	for p := range reservedPaths {
		paths = append(paths, p)
	}
	return paths
}
