package dbus

import "strings"

const (
	defaultSendBinary  = "dbus-send"
	defaultDestination = "org.asamk.Signal"
	defaultObjectPath  = "/org/asamk/Signal"
	signalInterface    = "org.asamk.Signal"
)

// CallSpec is a fully built bus call: the binary to run and its argv.
type CallSpec struct {
	Method string
	Name   string
	Args   []string
}

// String renders the call for logs. It is not meant to be fed to a shell.
func (c CallSpec) String() string {
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Encoder builds dbus-send invocations against the signal-cli D-Bus API.
// The zero value targets dbus-send on the system bus.
type Encoder struct {
	Binary      string
	Destination string
	ObjectPath  string
}

// EncodeNumberSend addresses a single recipient. The number is passed through
// unvalidated; signal-cli rejects bad numbers itself.
func (e Encoder) EncodeNumberSend(number, text, attachment string) CallSpec {
	return e.call("--print-reply", "sendMessage",
		"string:"+text,
		"array:string:"+attachment,
		"string:"+number,
	)
}

// EncodeGroupSend addresses a group by its hex id. It fails with
// *EncodingError before anything is executed when the id is malformed.
func (e Encoder) EncodeGroupSend(hexID, text, attachment string) (CallSpec, error) {
	encoded, err := EncodeBytes(hexID)
	if err != nil {
		return CallSpec{}, err
	}
	return e.call("--print-reply", "sendGroupMessage",
		"string:"+text,
		"array:string:"+attachment,
		"array:byte:"+encoded,
	), nil
}

// EncodeGroupList queries every group id known to the account.
func (e Encoder) EncodeGroupList() CallSpec {
	return e.call("--print-reply", "getGroupIds")
}

// EncodeGroupName resolves a group name from its byte-array encoding. The
// literal reply format prints just the name.
func (e Encoder) EncodeGroupName(byteEncoding string) CallSpec {
	return e.call("--print-reply=literal", "getGroupName", "array:byte:"+byteEncoding)
}

func (e Encoder) call(replyFlag, method string, params ...string) CallSpec {
	args := []string{
		"--system",
		"--type=method_call",
		replyFlag,
		"--dest=" + orDefault(e.Destination, defaultDestination),
		orDefault(e.ObjectPath, defaultObjectPath),
		signalInterface + "." + method,
	}
	args = append(args, params...)
	return CallSpec{Method: method, Name: orDefault(e.Binary, defaultSendBinary), Args: args}
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
