// Package database is terra's metadata store, a single SQLite file holding:
//   - photos: one row per indexed file, keyed by canonical path
//   - albums and album_photos: named collections and their members
//   - metadata: small key/value facts such as the last persisted scan
//
// Schema creation runs on every open and is idempotent. Later changes are
// appended to the migrations list as additive, idempotent steps.
//
// The store assumes one owning process. All access goes through a single
// connection in WAL mode with foreign keys enabled.
package database
