package cache

import (
	"strings"
	"time"
)

// Env is the deployment environment discriminator.
type Env string

const (
	EnvTest        Env = "test"
	EnvDevelopment Env = "development"
	EnvProduction  Env = "production"
)

// ParseEnv maps common spellings onto an Env. Anything unrecognised is
// production.
func ParseEnv(s string) Env {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "test", "testing":
		return EnvTest
	case "development", "dev", "local":
		return EnvDevelopment
	default:
		return EnvProduction
	}
}

// Class names a kind of cached data with its own expiry.
type Class string

const (
	ClassSearch           Class = "SEARCH"
	ClassTaxonomyUsage    Class = "TAXONOMY_USAGE"
	ClassTaxonomyMetadata Class = "TAXONOMY_METADATA"
	ClassHomePage         Class = "HOME_PAGE"
	ClassArchive          Class = "ARCHIVE"
	ClassDashboard        Class = "DASHBOARD"
	ClassProfile          Class = "PROFILE"
	ClassService          Class = "SERVICE"
)

// baseTTL holds production TTLs in seconds.
var baseTTL = map[Class]int{
	ClassSearch:           300,
	ClassTaxonomyUsage:    900,
	ClassTaxonomyMetadata: 3600,
	ClassHomePage:         600,
	ClassArchive:          1800,
	ClassDashboard:        60,
	ClassProfile:          600,
	ClassService:          600,
}

// devFloorSeconds is the shortest TTL development ever uses.
const devFloorSeconds = 30

// BaseTTL returns the production TTL of class in seconds.
func BaseTTL(class Class) (int, bool) {
	s, ok := baseTTL[class]
	return s, ok
}

// ResolveTTL adjusts a base TTL for env: zero in test, a tenth (at least
// 30s) in development, unchanged otherwise.
func ResolveTTL(baseSeconds int, env Env) int {
	switch env {
	case EnvTest:
		return 0
	case EnvDevelopment:
		return max(devFloorSeconds, baseSeconds/10)
	default:
		return baseSeconds
	}
}

// Policy resolves TTL classes for one environment. Build it once at the
// process boundary and pass it down.
type Policy struct {
	Env Env
}

// TTL returns the expiry for class. Unknown classes do not cache.
func (p Policy) TTL(class Class) time.Duration {
	base, ok := baseTTL[class]
	if !ok {
		return 0
	}
	return time.Duration(ResolveTTL(base, p.Env)) * time.Second
}

// Seconds is TTL in whole seconds.
func (p Policy) Seconds(class Class) int {
	return int(p.TTL(class) / time.Second)
}

// ShouldCache is false only in the test environment.
func (p Policy) ShouldCache() bool {
	return p.Env != EnvTest
}
