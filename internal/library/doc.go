// Package library implements the ingestor that copies user-chosen files
// into the managed library.
//
// Each source is copied, never moved, to <root>/<YYYY>/<MM>/<name>, where
// the year and month come from the resolved capture time in UTC. When the
// name is taken in that shard, the first free <stem>_<N><ext> is used,
// counting from 1. Destinations are created exclusively, so a file that
// appears between the check and the copy moves the search on to the next
// suffix.
//
// Existence checks and metadata extraction run in parallel. Copying and
// persistence then run one file at a time in input order, which keeps the
// suffix assignment deterministic. Failures for one file are logged and
// skipped; the rest of the batch continues.
package library
