package domain

// Turn is one inbound user message plus routing metadata
type Turn struct {
	Text      string
	UserRole  string
	Requester string
	Mode      string
	SessionID string
}

// TurnResult is the outcome of handling a single turn
type TurnResult struct {
	Answer string
	State  SessionState
	Route  Route
}

// ChatRequest represents a chat turn posted by a client
type ChatRequest struct {
	Text      string `json:"text" validate:"required,max=4000"`
	UserRole  string `json:"user_role" validate:"omitempty,max=64"`
	Requester string `json:"requester" validate:"omitempty,max=128"`
	SessionID string `json:"session_id,omitempty" validate:"omitempty,max=128"`
	Mode      string `json:"mode,omitempty" validate:"omitempty,oneof=qa rag kb leave hr QA RAG KB LEAVE HR"`
}

// Source is a citation attached to a QA answer
type Source struct {
	Index  int    `json:"index"`
	Source string `json:"source,omitempty"`
	Page   any    `json:"page,omitempty"`
}

// ChatResponse is returned for every chat turn
type ChatResponse struct {
	Answer      string   `json:"answer"`
	SessionID   string   `json:"session_id"`
	ActiveRoute Route    `json:"active_route"`
	LeaveID     string   `json:"leave_id,omitempty"`
	Sources     []Source `json:"sources,omitempty"`
}

// IngestResult describes a single uploaded document
type IngestResult struct {
	SavedAs    string `json:"saved_as"`
	Visibility string `json:"visibility"`
	DocID      string `json:"doc_id,omitempty"`
	Chunks     int    `json:"chunks"`
}

// ReindexResult describes a full rebuild of the knowledge base
type ReindexResult struct {
	Docs              int    `json:"docs"`
	Chunks            int    `json:"chunks"`
	VisibilityDefault string `json:"visibility_default"`
	Message           string `json:"message,omitempty"`
}

// TokenRequest asks for an operator token
type TokenRequest struct {
	Subject string `json:"subject" validate:"required,max=128"`
	Role    string `json:"role" validate:"required,oneof=hr manager employee"`
}
