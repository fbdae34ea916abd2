package agentclient

import (
	"encoding/json"
	"io"
)

// QueryRequest is the body of POST <base>/stream.
type QueryRequest struct {
	Type      string       `json:"type"`
	SessionID string       `json:"session_id"`
	Message   string       `json:"message"`
	Content   QueryContent `json:"content"`
}

type QueryContent struct {
	Query Query `json:"query"`
}

type Query struct {
	Prompt []PromptPart `json:"prompt"`
}

type PromptPart struct {
	Type    string     `json:"type"`
	Content PromptText `json:"content"`
}

type PromptText struct {
	Text string `json:"text"`
}

// NewQueryRequest builds a single text prompt for the streaming endpoint.
func NewQueryRequest(sessionID, message string) QueryRequest {
	return QueryRequest{
		Type:      "query",
		SessionID: sessionID,
		Message:   message,
		Content: QueryContent{
			Query: Query{
				Prompt: []PromptPart{
					{Type: "text", Content: PromptText{Text: message}},
				},
			},
		},
	}
}

// Response is an open response whose body the caller must close.
type Response struct {
	Status int
	Body   io.ReadCloser
}

// ChatRequest is the body of POST <base>/agent/chat. Either Message or
// ToolName is set.
type ChatRequest struct {
	Message    string         `json:"message,omitempty"`
	UserID     string         `json:"user_id,omitempty"`
	ToolName   string         `json:"tool_name,omitempty"`
	ToolParams map[string]any `json:"tool_params,omitempty"`
}

// ChatResponse is the agent's reply to a ChatRequest.
type ChatResponse struct {
	Status       string          `json:"status"`
	Data         json.RawMessage `json:"data,omitempty"`
	ToolName     string          `json:"tool_name,omitempty"`
	ErrorCode    string          `json:"error_code,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
}

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Text returns Data as text: JSON strings are unquoted, anything else is
// returned as raw JSON.
func (r *ChatResponse) Text() string {
	if len(r.Data) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(r.Data, &s); err == nil {
		return s
	}
	return string(r.Data)
}

// Contact is the contact_data payload of the add_contact tool.
type Contact struct {
	Name              string `json:"name" yaml:"name"`
	Gender            string `json:"gender,omitempty" yaml:"gender"`
	RelationshipType  string `json:"relationship_type,omitempty" yaml:"relationship_type"`
	RelationshipLevel string `json:"relationship_level,omitempty" yaml:"relationship_level"`
	BirthDate         string `json:"birth_date,omitempty" yaml:"birth_date"`
	BirthPlace        string `json:"birth_place,omitempty" yaml:"birth_place"`
	Bazi              string `json:"bazi,omitempty" yaml:"bazi"`
	MBTI              string `json:"mbti,omitempty" yaml:"mbti"`
	CurrentLocation   string `json:"current_location,omitempty" yaml:"current_location"`
	CompanyName       string `json:"company_name,omitempty" yaml:"company_name"`
	CompanyType       string `json:"company_type,omitempty" yaml:"company_type"`
	JobTitle          string `json:"job_title,omitempty" yaml:"job_title"`
	JobLevel          string `json:"job_level,omitempty" yaml:"job_level"`
	Notes             string `json:"notes,omitempty" yaml:"notes"`
}

// ToolInfo describes one tool advertised by GET <base>/tools.
type ToolInfo struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

type ToolsResponse struct {
	Status string     `json:"status"`
	Total  int        `json:"total"`
	Tools  []ToolInfo `json:"tools"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}
