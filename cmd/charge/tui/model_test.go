package tuicmder

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/workcharge/charge/pkg/agentclient"
	"github.com/workcharge/charge/pkg/chat"
	"github.com/workcharge/charge/pkg/cliui"
	"github.com/workcharge/charge/pkg/llm"
)

type gatedStreamer struct {
	calls   atomic.Int32
	release chan struct{}
}

func (s *gatedStreamer) Stream(_ context.Context, _, message string) (*agentclient.Response, error) {
	s.calls.Add(1)
	<-s.release
	body := fmt.Sprintf("data: {\"type\":\"text\",\"content\":{\"text\":%q}}\n", "echo: "+message)
	return &agentclient.Response{Status: 200, Body: io.NopCloser(strings.NewReader(body))}, nil
}

// chattyStreamer replies with more fragments than the stream buffer holds.
type chattyStreamer struct{ fragments int }

func (s chattyStreamer) Stream(context.Context, string, string) (*agentclient.Response, error) {
	var b strings.Builder
	for i := range s.fragments {
		fmt.Fprintf(&b, "data: {\"type\":\"text\",\"content\":{\"text\":\"%d \"}}\n", i)
	}
	return &agentclient.Response{Status: 200, Body: io.NopCloser(strings.NewReader(b.String()))}, nil
}

var _ = Describe("model", func() {
	var (
		streamer *gatedStreamer
		m        *model
	)

	typeLine := func(s string) tea.Cmd {
		m.input.SetValue(s)
		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		return cmd
	}

	// drain feeds every message of the exchange in flight back into the
	// model until the reply arrives.
	drain := func() {
		Expect(m.stream).NotTo(BeNil())
		for msg := range m.stream {
			m.Update(msg)
		}
	}

	BeforeEach(func() {
		streamer = &gatedStreamer{release: make(chan struct{})}
		m = newModel(context.Background(), "http://agent/api", func() *chat.Session {
			return chat.NewSession(chat.Config{Client: streamer})
		}, nil)
		m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	})

	It("sends a line and shows the reply", func() {
		cmd := typeLine("hello")
		Expect(cmd).NotTo(BeNil())
		Expect(m.busy).To(BeTrue())

		close(streamer.release)
		drain()

		Expect(m.busy).To(BeFalse())
		transcript := m.session.Transcript()
		Expect(transcript).To(HaveLen(2))
		Expect(transcript[1].Content).To(Equal("echo: hello"))
		Expect(cliui.Plain(m.viewport.View())).To(ContainSubstring("echo: hello"))
	})

	It("ignores input while a request is in flight", func() {
		typeLine("first")
		Eventually(streamer.calls.Load).Should(BeEquivalentTo(1))

		cmd := typeLine("second")
		Expect(cmd).To(BeNil())
		Expect(m.input.Value()).To(Equal("second"))

		close(streamer.release)
		drain()

		Expect(streamer.calls.Load()).To(BeEquivalentTo(1))
		Expect(m.session.Transcript()).To(HaveLen(2))
	})

	It("shows the spinner instead of the input while busy", func() {
		typeLine("hello")
		Expect(cliui.Plain(m.View())).To(ContainSubstring("waiting for the agent"))

		close(streamer.release)
		drain()
		Expect(cliui.Plain(m.View())).NotTo(ContainSubstring("waiting for the agent"))
	})

	It("quits on /exit", func() {
		cmd := typeLine("/exit")
		Expect(cmd).NotTo(BeNil())
		Expect(cmd()).To(Equal(tea.Quit()))
		Expect(m.quitting).To(BeTrue())
	})

	It("quits on ctrl+c even while busy", func() {
		typeLine("hello")
		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
		Expect(cmd()).To(Equal(tea.Quit()))

		close(streamer.release)
		drain()
	})

	It("lets an unread exchange finish once the screen is gone", func() {
		ctx, cancel := context.WithCancel(context.Background())
		m = newModel(ctx, "http://agent/api", func() *chat.Session {
			return chat.NewSession(chat.Config{Client: chattyStreamer{fragments: 200}})
		}, nil)
		m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})

		typeLine("hello")
		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
		Expect(cmd()).To(Equal(tea.Quit()))
		cancel()

		done := make(chan struct{})
		go func() {
			m.wait()
			close(done)
		}()
		Eventually(done).Should(BeClosed())
	})

	It("lists actions on /help", func() {
		Expect(typeLine("/help")).To(BeNil())
		Expect(m.busy).To(BeFalse())
		Expect(strings.Join(m.notices, "\n")).To(ContainSubstring("/new"))
	})

	It("reports unknown actions", func() {
		typeLine("/teleport")
		Expect(m.notices).To(ContainElement(ContainSubstring("unknown action")))
	})

	It("starts over on /new", func() {
		typeLine("hello")
		close(streamer.release)
		drain()
		first := m.session.ID()

		typeLine("/new")
		Expect(m.session.ID()).NotTo(Equal(first))
		Expect(m.session.Transcript()).To(BeEmpty())
	})

	It("renders failed replies as errors", func() {
		m.session = chat.NewSession(chat.Config{
			Client: streamer,
			History: []llm.ChatMessage{
				llm.NewChatMessage(llm.RoleUser, "hi"),
				{ID: "x", Role: llm.RoleAssistant, Content: chat.FailurePrefix + "boom", Failed: true},
			},
		})
		m.refresh()
		Expect(cliui.Plain(m.viewport.View())).To(ContainSubstring("boom"))
	})
})
