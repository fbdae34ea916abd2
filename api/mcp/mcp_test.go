package mcp

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/workcharge/charge/pkg/agentclient"
	chargelogger "github.com/workcharge/charge/pkg/logger"
)

type stubAgent struct {
	reply    string
	err      error
	tools    []agentclient.ToolInfo
	sessions []string
}

func (a *stubAgent) Stream(_ context.Context, sessionID, _ string) (*agentclient.Response, error) {
	a.sessions = append(a.sessions, sessionID)
	if a.err != nil {
		return nil, a.err
	}
	body := `data: {"type":"text","content":{"text":"` + a.reply + `"}}` + "\n"
	return &agentclient.Response{Status: http.StatusOK, Body: io.NopCloser(strings.NewReader(body))}, nil
}

func (a *stubAgent) Tools(context.Context) (*agentclient.ToolsResponse, error) {
	if a.err != nil {
		return nil, a.err
	}
	return &agentclient.ToolsResponse{Status: "success", Total: len(a.tools), Tools: a.tools}, nil
}

func textOf(res *mcp.CallToolResult) string {
	Expect(res.Content).To(HaveLen(1))
	text, ok := res.Content[0].(*mcp.TextContent)
	Expect(ok).To(BeTrue())
	return text.Text
}

var _ = Describe("MCP Server", func() {
	var (
		agent  *stubAgent
		server *Server
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		agent = &stubAgent{
			reply: "wear green today",
			tools: []agentclient.ToolInfo{
				{Name: "get_daily_fortune_and_outfit", Description: "Daily fortune"},
				{Name: "query_contacts", Description: "List contacts"},
			},
		}

		var err error
		server, err = NewServer(Config{Client: agent, Logger: chargelogger.Nop()})
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("NewServer", func() {
		It("returns an error when the client is nil", func() {
			_, err := NewServer(Config{Logger: chargelogger.Nop()})
			Expect(err).To(MatchError(ContainSubstring("agent client is required")))
		})

		It("returns an error when logger is nil", func() {
			_, err := NewServer(Config{Client: agent})
			Expect(err).To(MatchError(ContainSubstring("logger is required")))
		})

		It("returns an HTTP handler", func() {
			Expect(server.Handler()).NotTo(BeNil())
		})
	})

	Describe("ask_agent", func() {
		It("returns the reply and a session id", func() {
			res, out, err := server.handleAsk(ctx, nil, AskInput{Prompt: "what should I wear?"})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeFalse())
			Expect(textOf(res)).To(Equal("wear green today"))
			Expect(out.Reply).To(Equal("wear green today"))
			Expect(out.SessionID).To(HavePrefix("session_"))
		})

		It("continues a session when given its id", func() {
			_, first, err := server.handleAsk(ctx, nil, AskInput{Prompt: "one"})
			Expect(err).NotTo(HaveOccurred())

			_, second, err := server.handleAsk(ctx, nil, AskInput{Prompt: "two", SessionID: first.SessionID})
			Expect(err).NotTo(HaveOccurred())
			Expect(second.SessionID).To(Equal(first.SessionID))
			Expect(agent.sessions).To(Equal([]string{first.SessionID, first.SessionID}))
			Expect(server.session(first.SessionID).Transcript()).To(HaveLen(4))
		})

		It("starts a new session for each call without an id", func() {
			_, first, _ := server.handleAsk(ctx, nil, AskInput{Prompt: "one"})
			_, second, _ := server.handleAsk(ctx, nil, AskInput{Prompt: "two"})
			Expect(second.SessionID).NotTo(Equal(first.SessionID))
		})

		It("requires a prompt", func() {
			res, _, err := server.handleAsk(ctx, nil, AskInput{Prompt: "  "})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeTrue())
			Expect(textOf(res)).To(ContainSubstring("prompt is required"))
		})

		It("reports agent failures as tool errors", func() {
			agent.err = errors.New("connection refused")
			res, _, err := server.handleAsk(ctx, nil, AskInput{Prompt: "hi"})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeTrue())
			Expect(textOf(res)).To(ContainSubstring("connection refused"))
		})
	})

	Describe("list_agent_tools", func() {
		It("lists the agent's tools", func() {
			res, out, err := server.handleListTools(ctx, nil, struct{}{})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeFalse())
			Expect(out.Count).To(Equal(2))
			Expect(out.Tools[0]).To(Equal(AgentTool{Name: "get_daily_fortune_and_outfit", Description: "Daily fortune"}))
			Expect(textOf(res)).To(ContainSubstring("query_contacts: List contacts"))
		})

		It("reports agent failures as tool errors", func() {
			agent.err = errors.New("timeout")
			res, _, err := server.handleListTools(ctx, nil, struct{}{})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeTrue())
		})
	})
})
