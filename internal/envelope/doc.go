// Package envelope reassembles inbound messages from signal-cli daemon output.
//
// signal-cli prints each received message as a block of "Field: value" lines
// closed by an empty line:
//
//	Envelope from: “Alice” +4915112345 (device: 1) to +4917000000
//	Timestamp: 1700000000000 (2023-11-14T22:13:20.000Z)
//	Message timestamp: 1700000000000 (2023-11-14T22:13:20.000Z)
//	Body: hello
//	over two lines
//	With profile key
//
// Assembler consumes one line at a time. Consume only mutates state; Take
// hands out a finished Envelope exactly once. Splitting feed from poll lets the
// daemon read loop check process liveness between lines.
//
// Blocks without a body (receipts, typing notices, sync messages) and any
// output outside a block are dropped.
package envelope
