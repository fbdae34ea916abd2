package agentclient

import (
	"context"
	"encoding/json"
	"fmt"
)

// Tool names understood by the agent's /agent/chat endpoint.
const (
	ToolLogin           = "login"
	ToolQueryUser       = "query_user_by_id"
	ToolAddContact      = "add_contact"
	ToolQueryContacts   = "query_contacts"
	ToolDailyFortune    = "get_daily_fortune_and_outfit"
	ToolUsageStatistics = "get_usage_statistics"
)

// toolMessages label each known tool call in the request's message field.
var toolMessages = map[string]string{
	ToolLogin:           "login",
	ToolQueryUser:       "query user info",
	ToolAddContact:      "add contact",
	ToolQueryContacts:   "query contacts",
	ToolDailyFortune:    "get daily fortune and outfit",
	ToolUsageStatistics: "get usage statistics",
}

// userScopedTools take the caller's id as their user_id parameter.
var userScopedTools = map[string]bool{
	ToolQueryUser:     true,
	ToolAddContact:    true,
	ToolQueryContacts: true,
	ToolDailyFortune:  true,
}

// CallTool invokes a named tool on behalf of userID. For user scoped tools
// userID is also passed as the user_id parameter unless params sets one.
func (c *Client) CallTool(ctx context.Context, userID, name string, params map[string]any) (*ChatResponse, error) {
	if name == "" {
		return nil, fmt.Errorf("tool name is required")
	}
	if params == nil {
		params = map[string]any{}
	}
	if _, ok := params["user_id"]; !ok && userID != "" && userScopedTools[name] {
		params["user_id"] = userID
	}

	return c.Chat(ctx, ChatRequest{
		Message:    toolMessages[name],
		UserID:     userID,
		ToolName:   name,
		ToolParams: params,
	})
}

// Message sends plain text to the non-streaming chat endpoint.
func (c *Client) Message(ctx context.Context, userID, text string) (*ChatResponse, error) {
	return c.Chat(ctx, ChatRequest{UserID: userID, Message: text})
}

// Login checks credentials. The agent answers with a text summary rather
// than a token; the username doubles as the user id.
func (c *Client) Login(ctx context.Context, username, password string) (*ChatResponse, error) {
	return c.CallTool(ctx, username, ToolLogin, map[string]any{
		"username": username,
		"password": password,
	})
}

func (c *Client) QueryUser(ctx context.Context, userID string) (*ChatResponse, error) {
	return c.CallTool(ctx, userID, ToolQueryUser, nil)
}

// AddContact stores a contact for userID. The tool expects the contact as
// a JSON string.
func (c *Client) AddContact(ctx context.Context, userID string, contact Contact) (*ChatResponse, error) {
	if contact.Name == "" {
		return nil, fmt.Errorf("contact name is required")
	}

	data, err := json.Marshal(contact)
	if err != nil {
		return nil, fmt.Errorf("marshaling contact: %w", err)
	}

	return c.CallTool(ctx, userID, ToolAddContact, map[string]any{"contact_data": string(data)})
}

// QueryContacts lists userID's contacts, optionally filtered by
// relationship type.
func (c *Client) QueryContacts(ctx context.Context, userID, contactType string) (*ChatResponse, error) {
	params := map[string]any{}
	if contactType != "" {
		params["contact_type"] = contactType
	}
	return c.CallTool(ctx, userID, ToolQueryContacts, params)
}

// DailyFortune fetches the fortune and outfit report for reportDate
// (YYYY-MM-DD), or for today when empty.
func (c *Client) DailyFortune(ctx context.Context, userID, reportDate string) (*ChatResponse, error) {
	params := map[string]any{}
	if reportDate != "" {
		params["report_date"] = reportDate
	}
	return c.CallTool(ctx, userID, ToolDailyFortune, params)
}

// UsageStatistics returns usage numbers for date (YYYY-MM-DD). Admin only.
func (c *Client) UsageStatistics(ctx context.Context, adminUserID, date string) (*ChatResponse, error) {
	params := map[string]any{"admin_user_id": adminUserID}
	if date != "" {
		params["date_str"] = date
	}
	return c.CallTool(ctx, adminUserID, ToolUsageStatistics, params)
}
