// Package daemon supervises the signal-cli daemon subprocess.
//
// # Lifecycle
//
// Supervisor.Start launches
//
//	<signal-cli> --config <dir> -u <account> daemon --system
//
// through an executor.Executor and spawns the read loop goroutine. The loop
// is the only reader of the daemon's stdout and the only user of the
// envelope.Assembler, so neither needs locking.
//
// For every line the loop:
//
//  1. checks whether the daemon has exited (or the stream closed)
//  2. records the line in the recent-output ring
//  3. feeds the assembler and, when an envelope completes, calls the Handler
//
// Envelopes are handled synchronously and strictly in stream order. A slow
// Handler throttles ingestion; the OS pipe buffer is the only queue.
//
// # Daemon death
//
// There is no reconnect protocol with signal-cli, so its death is fatal for
// the whole process. The loop drains and logs whatever output is still
// buffered (usually a Java stack trace), then calls the exit function with
// ExitDaemonFailure (4). A service manager can key a restart policy on that
// code.
//
// If the context passed to Start has been cancelled, the daemon's exit is
// treated as part of a normal shutdown and the exit function is not called.
package daemon
