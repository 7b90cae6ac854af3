// Package logtail reads the tail of shooter's own log file for the activity pane.
//
// # Reading Log Files
//
// Read extracts the last maxLines lines with a ring buffer of size maxLines, so
// memory stays O(maxLines) however large the file grows:
//
//	1. Allocate ring buffer of size maxLines
//	2. For each line: store at the current index, advance with wraparound
//	3. If fewer than maxLines were seen, return the filled prefix
//	4. Otherwise return the buffer starting at the current index (oldest line)
//
// # Parsing
//
// The log file holds one JSON object per line as written by zerolog. Parse
// pulls out time, level, message and error and keeps the remaining keys as
// sorted fields; Format renders an entry as a compact single line. Lines that
// are not JSON (a stray panic trace, say) pass through untouched.
//
// # Error Handling
//
// Read returns nil, nil for non-existent files. Other errors are returned
// wrapped. Parse and Format never fail.
package logtail
