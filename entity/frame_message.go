package entity

import (
	"encoding/json"
	"fmt"
)

// Frame message kinds exchanged with the embedded payment page.
// The hosted page script posts these on the window message channel;
// "flexMsg" is the discriminant field.
const (
	FrameReady    = "ready"
	FrameSize     = "size"
	FrameNavigate = "navigate"
	FrameSubmit   = "submit"
)

// FrameMessage is one cross-frame message. Height is set for "size"
// messages, Href for "navigate"; both are zero otherwise.
type FrameMessage struct {
	FlexMsg string `json:"flexMsg"`
	Height  int    `json:"height,omitempty"`
	Href    string `json:"href,omitempty"`
}

// DecodeFrameMessage parses raw message data and rejects anything
// without the flexMsg discriminant. Unrelated messages arrive on the
// same global channel, so an undecodable or untagged payload is not an
// error worth surfacing to the caller's state machine.
func DecodeFrameMessage(raw []byte) (*FrameMessage, error) {
	var msg FrameMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("decode frame message: %w", err)
	}
	if msg.FlexMsg == "" {
		return nil, fmt.Errorf("frame message without discriminant")
	}
	return &msg, nil
}

// SubmitMessage is the payload the parent posts into the frame to
// trigger form submission.
func SubmitMessage() []byte {
	data, _ := json.Marshal(FrameMessage{FlexMsg: FrameSubmit})
	return data
}
