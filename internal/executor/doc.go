// Package executor runs external commands for courier.
//
// Both the signal-cli daemon and every dbus-send bus call go through the
// Executor interface so that tests can substitute a scripted fake (see
// internal/testutil) without touching business logic.
//
// Commands are always built as argv lists. Nothing is passed through a
// shell, so message text containing quotes or shell metacharacters is
// delivered verbatim.
package executor
