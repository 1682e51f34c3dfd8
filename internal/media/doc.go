// Package media turns a file on disk into a photo record.
//
// Three pieces cooperate:
//   - CaptureResolver picks a capture time: EXIF DateTimeOriginal or
//     DateTime, then a date in the file name, then the file's mtime, then
//     the wall clock
//   - Prober reads pixel dimensions, returning (0,0) for videos and for
//     anything it cannot decode
//   - Extractor canonicalizes the path and combines the two
//
// None of them return errors for per-file problems. Failures are logged and
// degrade to the next fallback.
package media
