// Package logging is terra's leveled, printf-style logger on top of zap.
//
// Output is a console-encoded zap logger on stderr, so the CLI can keep
// stdout for JSON. LOG_LEVEL selects debug, info, warn or error (info when
// unset); DEBUG=true forces debug. Fatal logs at error severity and exits.
package logging
