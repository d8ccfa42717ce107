package realtime

// Frame types exchanged on the feed socket.
const (
	FrameSubscribe   = "subscribe"
	FrameUnsubscribe = "unsubscribe"
	FramePing        = "ping"

	FrameSubscribed = "subscribed"
	FrameChange     = "change"
	FrameError      = "error"
	FramePong       = "pong"
)

type Frame struct {
	Type    string  `json:"type"`
	Ref     string  `json:"ref,omitempty"`
	Table   string  `json:"table,omitempty"`
	Event   string  `json:"event,omitempty"`
	Filter  string  `json:"filter,omitempty"`
	Change  *Change `json:"change,omitempty"`
	Message string  `json:"message,omitempty"`
}

func ErrorFrame(ref, msg string) Frame {
	return Frame{Type: FrameError, Ref: ref, Message: msg}
}
