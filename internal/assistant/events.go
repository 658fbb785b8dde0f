package assistant

// DoneMarker is the content of the terminal event of every stream.
const DoneMarker = "[DONE]"

const streamErrorMessage = "An error occurred during streaming."

// Event is one server-sent event relayed to the client.
type Event struct {
	Content string `json:"content"`
	Error   string `json:"error,omitempty"`
	DBSaved *bool  `json:"db_saved,omitempty"`
	HasCode *bool  `json:"has_code,omitempty"`
}

// EventSink delivers events to the client. An error means the client is gone.
type EventSink interface {
	Send(Event) error
}

func ChunkEvent(text string) Event {
	return Event{Content: text}
}

func DoneEvent(hasCode bool) Event {
	saved := true
	return Event{Content: DoneMarker, DBSaved: &saved, HasCode: &hasCode}
}

func ErrorEvent(err error) Event {
	return Event{Content: streamErrorMessage, Error: err.Error()}
}

func FailedDoneEvent() Event {
	saved := false
	return Event{Content: DoneMarker, DBSaved: &saved}
}

func (e Event) IsTerminal() bool {
	return e.Content == DoneMarker && e.DBSaved != nil
}
