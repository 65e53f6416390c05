// Package logtail keeps and drains signal-cli daemon output.
//
// # Overview
//
// The daemon writes envelopes and diagnostics to a single stdout stream.
// courier needs two things from that stream besides envelope parsing:
//
//  1. Ring: the last N lines, for /api/status and the watch TUI
//  2. Drain: everything still buffered once the daemon has died, so the
//     reason for the crash ends up in the log before the process exits
//
// # Ring Buffer Algorithm
//
// Ring is a fixed circular buffer of size maxLines:
//
//	1. Allocate ring buffer of size maxLines
//	2. For each added line:
//	   - Store line at current index
//	   - Increment index (wrapping at maxLines)
//	   - Track total lines seen (capped at maxLines)
//	3. If total < maxLines:
//	   - Return first 'count' entries from buffer
//	4. If total >= maxLines:
//	   - Return buffer starting from current index (oldest line)
//
// Memory stays O(maxLines) however chatty the daemon is. A Ring of size zero
// (or a nil *Ring) drops every line, which is what tests usually want.
//
// # Reading Lines
//
// ReadLine and Drain work on a *bufio.Reader shared with the read loop, so
// bytes the loop has already buffered are not lost when draining. Both strip
// "\n" and "\r\n" terminators. A final line without a terminator is still
// delivered.
//
// # Thread Safety
//
// Ring methods lock internally. ReadLine and Drain must only be called by the
// goroutine that owns the reader.
package logtail
