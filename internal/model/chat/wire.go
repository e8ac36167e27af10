package chat

// Request is the body of POST /api/chat.
type Request struct {
	Message string `json:"message"`
}

// Response is the body returned by POST /api/chat. Exactly one field is set.
type Response struct {
	Response string `json:"response,omitempty"`
	Error    string `json:"error,omitempty"`
}
