package realtime

// Envelope is the wire message pushed to clients. Event carries the
// "<operation> <entity>" name; Document is the full rehydrated entity on
// insert/update and a bare Stub on delete.
type Envelope struct {
	Event     string      `json:"event"`
	Operation string      `json:"operation,omitempty"`
	Document  interface{} `json:"document,omitempty"`
	Section   string      `json:"section,omitempty"`
	Fields    []string    `json:"fields,omitempty"`
}

// Stub is the tombstone document sent for deletes: the feed does not carry
// deleted content, so clients only get the id and must filter locally.
type Stub struct {
	ID string `json:"id"`
}

// TypingSignal is the ephemeral typing indicator relayed between clients.
// Never persisted.
type TypingSignal struct {
	Event    string      `json:"event"`
	Location string      `json:"location"`
	User     interface{} `json:"user"`
	Typing   bool        `json:"typing"`
}

// Identity is the client-supplied claim exchanged on the authentication
// signal. Trusted because the socket transport shares the origin and
// session with the already-authenticated REST layer.
type Identity struct {
	UserID    string   `json:"userId"`
	Username  string   `json:"username"`
	ServerIDs []string `json:"serverIds"`
}
