package session

// Event is one outbound message to the UI surface. Command values mirror the
// wire protocol.
type Event struct {
	Command string `json:"command"`
	Text    string `json:"text,omitempty"`
}

const (
	CommandResponse = "response"
	CommandNotice   = "notice"
	CommandError    = "error"
	CommandFinished = "finished"
)

// Request is one inbound submit from the UI.
type Request struct {
	Text    string
	Persona string
}

func responseEvent(text string) Event { return Event{Command: CommandResponse, Text: text} }
func noticeEvent(text string) Event   { return Event{Command: CommandNotice, Text: text} }
func errorEvent(text string) Event    { return Event{Command: CommandError, Text: text} }
func finishedEvent() Event            { return Event{Command: CommandFinished} }
