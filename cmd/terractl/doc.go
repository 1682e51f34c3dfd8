// Command terractl runs library operations against the local Terra data
// directory without starting the HTTP bridge.
//
// Usage:
//
//	terractl <command> [arguments]
//
// Commands:
//
//	scan <root> [-persist]  Walk root and print the extracted records.
//	                        With -persist the records are saved as scans.
//	upload <files...>       Copy files into the managed library, sharded
//	                        by capture year and month.
//	list                    Print all stored photos, newest first.
//	favorites               Print favorite photos.
//	years                   Print photo counts per capture year.
//	albums                  Print albums with photo counts.
//	stats                   Print library totals.
//
// Results are written to stdout as JSON. When stderr is a terminal, scan
// and upload show a progress bar.
//
// Environment:
//
//	TERRA_DATA_DIR    - Directory holding photos.db
//	TERRA_LIBRARY_DIR - Managed library root
//	TERRA_CONFIG      - Optional config file (YAML, TOML or JSON)
package main
