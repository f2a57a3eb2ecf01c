package domain

// RefusalAnswer is returned when retrieval finds no chunk above the
// similarity threshold. Generation is skipped in that case.
const RefusalAnswer = "I'm sorry, I can only answer questions based on the uploaded document(s)."

// QueryRequest is the normalised shape of every query entry point.
type QueryRequest struct {
	// Query is the user's question.
	Query string `json:"query"`

	// SessionID scopes conversational memory. Empty starts a new session.
	SessionID string `json:"session_id"`
}

// QueryResponse is returned to every query entry point.
type QueryResponse struct {
	// Answer is the generated answer or RefusalAnswer.
	Answer string `json:"answer"`

	// Sources lists the distinct document ids used, in similarity order.
	Sources []string `json:"sources"`

	// SessionID echoes (or assigns) the conversation identifier.
	SessionID string `json:"session_id"`
}

// Refused reports whether the response is the no-context refusal.
func (r *QueryResponse) Refused() bool {
	return r.Answer == RefusalAnswer && len(r.Sources) == 0
}
