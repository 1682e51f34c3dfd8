/*
Package workers sizes the scanner and ingestor pools.

Sizes start from GOMAXPROCS, which follows a container's CPU quota where
runtime.NumCPU does not, scaled by a Profile:

	workers.Mixed.Workers(16) // metadata extraction
	workers.IO.Workers(16)    // ingest copies

Resolve prefers an explicit setting:

	n := workers.Resolve(cfg.ScanWorkers, workers.Mixed, 16)

A positive TERRA_WORKERS pins every pool, still capped by the limit.
*/
package workers
