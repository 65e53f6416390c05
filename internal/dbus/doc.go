// Package dbus speaks to the signal-cli D-Bus interface through dbus-send.
//
// # Calls
//
// Every operation is one synchronous dbus-send invocation on the system bus
// against org.asamk.Signal at /org/asamk/Signal:
//
//   - sendMessage(text, attachments, number)
//   - sendGroupMessage(text, attachments, groupId bytes)
//   - getGroupIds()
//   - getGroupName(groupId bytes)
//
// Encoder builds these as CallSpec values (binary plus argv). Sender runs
// them through an executor.Executor and owns the group directory lookup.
//
// # Group ids
//
// Groups are addressed by a lower-case hex string such as "abcdef". On the
// bus the id is a byte array, written for dbus-send as "0xab,0xcd,0xef".
// EncodeBytes and DecodeBytes convert between the two; an id with odd length
// or non-hex digits fails with *EncodingError before anything is executed.
//
// # Directory listing
//
// getGroupIds replies with nested arrays whose byte rows look like
// "         ab cd ef". Only lines made entirely of space separated byte pairs
// are taken as ids; everything else in the reply is ignored. Each id is then
// resolved with getGroupName and the result keyed by name.
package dbus
