// Package commands exposes the library's host operations as one facade.
//
// Each method maps to a single operation a host application can invoke:
// scanning a directory, uploading files into the managed library, listing
// and deleting photos, toggling favorites, and managing albums. Results
// are returned as plain values from package database so any transport can
// serialize them.
package commands
