package channel

import (
	"bytes"
	"strings"

	"github.com/tello-control/tello/internal/command"
)

// Reply is the classification of one command round trip.
type Reply struct {
	Command string
	Raw     string // trimmed reply text, empty when nothing was received
	Err     error  // nil on success
}

// OK reports whether the device answered with the success token.
func (r Reply) OK() bool {
	return r.Err == nil
}

// Reason returns a short failure reason, or "" on success.
func (r Reply) Reason() string {
	return command.Reason(r.Err)
}

// Classify maps raw reply bytes to a Reply. Replies that begin with the
// success token are successes; anything else is a device-reported failure.
func Classify(cmd string, raw []byte) Reply {
	reply := Reply{Command: cmd, Raw: strings.TrimSpace(string(raw))}
	if !bytes.HasPrefix(raw, []byte(command.SuccessToken)) {
		reply.Err = command.NewDeviceError(cmd, raw)
	}
	return reply
}

// Failed builds a Reply for a round trip that produced no reply bytes.
func Failed(cmd string, err error) Reply {
	return Reply{Command: cmd, Err: err}
}
