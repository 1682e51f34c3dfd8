// Package indexer implements the directory scanner.
//
// A scan walks a root directory recursively and keeps regular files whose
// extension is on the media allow-list (see package mediatypes). Unreadable
// subtrees are logged and skipped. Candidates are handed to a fixed pool of
// workers that run the metadata extractor, one file per job; results are
// gathered in completion order, so callers sort as needed.
//
// When persistence is requested, records are upserted one at a time with
// source type "scan". The first failed upsert stops the persistence step and
// is returned alongside the extracted records. Earlier upserts stay
// committed. A fully persisted scan records its root and time in the
// store's metadata table.
package indexer
