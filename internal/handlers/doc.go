// Package handlers provides the HTTP/JSON bridge between a host process and
// the photo library.
//
// It includes handlers for:
//   - Directory scans and uploads into the managed library
//   - Photo listing, deletion and favorites
//   - Albums, memberships and covers
//   - Year counts and library stats
//   - Health, liveness and version checks
//
// Errors are returned as {"error": "..."}: 400 for malformed requests, 404
// for unknown albums and 500 for everything else.
package handlers
