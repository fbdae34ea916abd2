package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var (
	askToolName    = "ask_agent"
	askDescription = "Send a prompt to the charge agent and return its full reply. Pass the session_id from an earlier reply to continue that conversation."

	listToolsToolName    = "list_agent_tools"
	listToolsDescription = "List the tools the charge agent can call on the user's behalf."
)

// AskInput represents the input arguments for the ask_agent tool.
type AskInput struct {
	Prompt    string `json:"prompt" jsonschema:"the message to send to the agent"`
	SessionID string `json:"session_id,omitempty" jsonschema:"conversation to continue; omit to start a new one"`
}

// AskOutput is the agent's reply.
type AskOutput struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
}

// AgentTool describes one tool of the agent.
type AgentTool struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ListToolsOutput represents the output of the list_agent_tools tool.
type ListToolsOutput struct {
	Tools []AgentTool `json:"tools"`
	Count int         `json:"count"`
}

func errorResult(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf(format, args...)},
		},
	}
}

// handleAsk runs one exchange on the requested session.
func (s *Server) handleAsk(ctx context.Context, _ *mcp.CallToolRequest, input AskInput) (*mcp.CallToolResult, AskOutput, error) {
	if strings.TrimSpace(input.Prompt) == "" {
		return errorResult("prompt is required"), AskOutput{}, nil
	}

	sess := s.session(input.SessionID)
	s.config.Logger.Debug("MCP ask request", "session_id", sess.ID())

	reply, err := sess.Send(ctx, input.Prompt)
	if err != nil {
		s.config.Logger.Error("agent exchange failed", "session_id", sess.ID(), "error", err)
		return errorResult("Agent request failed: %v", err), AskOutput{}, nil
	}

	output := AskOutput{SessionID: sess.ID(), Reply: reply.Content}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: reply.Content},
		},
	}, output, nil
}

// handleListTools fetches the agent's tool catalogue.
func (s *Server) handleListTools(ctx context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, ListToolsOutput, error) {
	resp, err := s.config.Client.Tools(ctx)
	if err != nil {
		s.config.Logger.Error("failed to list agent tools", "error", err)
		return errorResult("Listing agent tools failed: %v", err), ListToolsOutput{Tools: []AgentTool{}}, nil
	}

	output := ListToolsOutput{Tools: make([]AgentTool, 0, len(resp.Tools))}
	var b strings.Builder
	for _, t := range resp.Tools {
		output.Tools = append(output.Tools, AgentTool{Name: t.Name, Description: t.Description})
		fmt.Fprintf(&b, "%s: %s\n", t.Name, t.Description)
	}
	output.Count = len(output.Tools)

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: b.String()},
		},
	}, output, nil
}
