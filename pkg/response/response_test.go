package response_test

import (
	"errors"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/workcharge/charge/pkg/response"
	"github.com/workcharge/charge/pkg/sse"
)

type sliceSource struct {
	events []*sse.Event
	err    error
}

func (s *sliceSource) Next() (*sse.Event, error) {
	if len(s.events) == 0 {
		return nil, s.err
	}
	ev := s.events[0]
	s.events = s.events[1:]
	return ev, nil
}

var _ = Describe("Buffer", func() {
	It("concatenates text and tool_result events in arrival order", func() {
		b := response.NewBuffer()
		b.Add(&sse.Event{Kind: sse.KindText, Text: "Your luck "})
		b.Add(&sse.Event{Kind: sse.KindToolResult, Text: "[fortune: 88]"})
		b.Add(&sse.Event{Kind: sse.KindText, Text: " today."})
		Expect(b.Finalize()).To(Equal("Your luck [fortune: 88] today."))
	})

	It("skips other kinds and empty text", func() {
		b := response.NewBuffer()
		Expect(b.Add(&sse.Event{Kind: sse.KindOther, Text: "tool_call"})).To(BeFalse())
		Expect(b.Add(&sse.Event{Kind: sse.KindText})).To(BeFalse())
		Expect(b.Add(nil)).To(BeFalse())
		Expect(b.Add(&sse.Event{Kind: sse.KindText, Text: "ok"})).To(BeTrue())
		Expect(b.Finalize()).To(Equal("ok"))
	})

	It("returns the fallback for an empty exchange", func() {
		Expect(response.NewBuffer().Finalize()).To(Equal(response.FallbackText))
	})

	It("returns the fallback when only ignored events arrived", func() {
		b := response.NewBuffer()
		b.Add(&sse.Event{Kind: sse.KindOther, Text: "x"})
		Expect(b.Finalize()).To(Equal(response.FallbackText))
	})

	It("ignores events after Finalize", func() {
		b := response.NewBuffer()
		b.Add(&sse.Event{Kind: sse.KindText, Text: "done"})
		Expect(b.Finalize()).To(Equal("done"))
		Expect(b.Add(&sse.Event{Kind: sse.KindText, Text: " more"})).To(BeFalse())
		Expect(b.Finalize()).To(Equal("done"))
	})

	It("reports each appended fragment to OnText", func() {
		var seen []string
		b := response.NewBuffer(response.OnText(func(s string) { seen = append(seen, s) }))
		b.Add(&sse.Event{Kind: sse.KindText, Text: "a"})
		b.Add(&sse.Event{Kind: sse.KindOther, Text: "b"})
		b.Add(&sse.Event{Kind: sse.KindToolResult, Text: "c"})
		Expect(seen).To(Equal([]string{"a", "c"}))
		Expect(b.Len()).To(Equal(2))
	})
})

var _ = Describe("Collect", func() {
	It("folds a stream read by sse.Reader", func() {
		stream := "event: message\ndata: {\"type\":\"text\",\"content\":{\"text\":\"INTJ \"}}\n\n" +
			"data: {not json\n" +
			"data: {\"type\":\"tool_call\",\"content\":{\"text\":\"ignored\"}}\n" +
			"data: {\"type\":\"tool_result\",\"content\":{\"text\":\"architect\"}}\n"

		text, err := response.Collect(sse.NewReader(strings.NewReader(stream)))
		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(Equal("INTJ architect"))
	})

	It("yields the fallback for an empty stream", func() {
		text, err := response.Collect(&sliceSource{})
		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(Equal(response.FallbackText))
	})

	It("discards partial text on a read error", func() {
		boom := errors.New("reset")
		src := &sliceSource{
			events: []*sse.Event{{Kind: sse.KindText, Text: "half"}},
			err:    boom,
		}

		text, err := response.Collect(src)
		Expect(err).To(MatchError(boom))
		Expect(text).To(BeEmpty())
	})
})
