package workers

import (
	"math"
	"os"
	"runtime"
	"strconv"
)

// OverrideEnv names the environment variable that pins the worker count.
const OverrideEnv = "TERRA_WORKERS"

// Profile is the number of workers per available CPU for a kind of work.
type Profile float64

const (
	// CPU suits full image decodes.
	CPU Profile = 1.0
	// IO suits stat and copy, which mostly wait on the disk.
	IO Profile = 2.0
	// Mixed suits metadata extraction: a header read followed by parsing.
	Mixed Profile = 1.5
)

// Workers returns the pool size for p, at least 1 and at most limit
// (0 means uncapped). A positive TERRA_WORKERS replaces the computed value.
func (p Profile) Workers(limit int) int {
	n, ok := override()
	if !ok {
		n = int(math.Floor(float64(runtime.GOMAXPROCS(0)) * float64(p)))
	}
	return clamp(n, limit)
}

// Resolve returns configured when positive and p's pool size otherwise.
func Resolve(configured int, p Profile, limit int) int {
	if configured > 0 {
		return configured
	}
	return p.Workers(limit)
}

func override() (int, bool) {
	n, err := strconv.Atoi(os.Getenv(OverrideEnv))
	return n, err == nil && n > 0
}

func clamp(n, limit int) int {
	n = max(n, 1)
	if limit > 0 {
		n = min(n, limit)
	}
	return n
}
