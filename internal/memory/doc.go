// Package memory sets the Go memory limit from the environment and pauses
// metadata extraction under heap pressure.
//
// # Configuration
//
// [ConfigureFromEnv] runs early in main:
//
//   - GOMEMLIMIT: standard Go variable, takes precedence when set.
//   - TERRA_MEMORY_LIMIT: memory available to the process, in bytes.
//   - TERRA_MEMORY_RATIO: share of TERRA_MEMORY_LIMIT given to the heap,
//     0.0 to 1.0, default 0.85.
//
// # Backpressure
//
// A [Monitor] samples heap allocation on an interval. At the critical
// watermark it pauses callers of [Monitor.Wait] and triggers a GC; the
// pause ends once usage drops below the high watermark. The scanner and
// the ingestor call Wait before every extraction.
//
//	monitor := memory.NewMonitor(memory.DefaultConfig())
//	monitor.Start()
//	defer monitor.Stop()
//	scanner.SetGate(monitor)
package memory
