// Package mediatypes holds the extension allow-lists that decide which
// files terra indexes. Matching is case-insensitive.
//
//	mediatypes.IsMediaFile("IMG_0001.JPG") // true
//	mediatypes.KindOf("clip.mov")          // Video
package mediatypes
