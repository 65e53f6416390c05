package envelope

import "strings"

// Envelope is one complete inbound message.
type Envelope struct {
	Sender  string
	Message string
}

const (
	senderMarker = "Envelope from:"
	bodyMarker   = "Body:"
)

// headerPrefixes are the other fields signal-cli prints inside an envelope.
// They end a multi-line body but carry nothing the bridge needs.
var headerPrefixes = []string{
	"Timestamp:",
	"Server timestamps:",
	"Message timestamp:",
	"Expires in:",
	"Attachments:",
	"Group info:",
	"With profile key",
	"Profile key update",
	"Quote:",
	"Reaction:",
	"Sticker:",
	"Mentions:",
	"Sent by unidentified/sealed sender",
	"Received a receipt message",
	"Is delivery receipt",
	"Is read receipt",
	"Received sync",
	"Typing message",
}

type phase int

const (
	idle phase = iota
	accumulating
)

// Assembler rebuilds envelopes from signal-cli's plain-text output, one line
// at a time. It is not safe for concurrent use; the daemon read loop is its
// only caller.
type Assembler struct {
	phase  phase
	sender string
	body   []string
	inBody bool
	ready  *Envelope
}

// Consume feeds one line (without its trailing newline) into the assembler.
func (a *Assembler) Consume(line string) {
	line = strings.TrimRight(line, "\r\n")

	if rest, ok := strings.CutPrefix(line, senderMarker); ok {
		sender := parseSender(rest)
		if sender == "" {
			a.reset()
			return
		}
		a.phase = accumulating
		a.sender = sender
		a.body = a.body[:0]
		a.inBody = false
		return
	}

	if a.phase == idle {
		return
	}

	switch {
	case strings.TrimSpace(line) == "":
		a.finish()
	case strings.HasPrefix(line, bodyMarker):
		a.body = append(a.body[:0], strings.TrimPrefix(strings.TrimPrefix(line, bodyMarker), " "))
		a.inBody = true
	case isHeader(line):
		a.inBody = false
	case a.inBody:
		a.body = append(a.body, line)
	}
}

// Take returns the envelope completed by the most recent terminator, once.
func (a *Assembler) Take() (Envelope, bool) {
	if a.ready == nil {
		return Envelope{}, false
	}
	env := *a.ready
	a.ready = nil
	return env, true
}

func (a *Assembler) finish() {
	message := strings.Join(a.body, "\n")
	if a.sender != "" && strings.TrimSpace(message) != "" {
		a.ready = &Envelope{Sender: a.sender, Message: message}
	}
	a.reset()
}

func (a *Assembler) reset() {
	a.phase = idle
	a.sender = ""
	a.body = nil
	a.inBody = false
}

// parseSender extracts the address from the remainder of a sender line:
//
//	“Alice” +4915112345 (device: 1) to +4917000000
//	+4915112345 (device: 2)
//	"Bob" 3f1c...-uuid (device: 1)
func parseSender(rest string) string {
	rest = strings.TrimSpace(rest)
	if cut, ok := strings.CutPrefix(rest, "“"); ok {
		if _, after, found := strings.Cut(cut, "”"); found {
			rest = after
		}
	} else if cut, ok := strings.CutPrefix(rest, `"`); ok {
		if _, after, found := strings.Cut(cut, `"`); found {
			rest = after
		}
	}
	fields := strings.Fields(rest)
	if len(fields) == 0 || strings.HasPrefix(fields[0], "(") {
		return ""
	}
	return fields[0]
}

func isHeader(line string) bool {
	for _, p := range headerPrefixes {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}
