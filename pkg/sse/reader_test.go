package sse_test

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing/iotest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/workcharge/charge/pkg/logger"
	"github.com/workcharge/charge/pkg/sse"
)

// chunkReader hands out one chunk per Read call.
type chunkReader struct {
	chunks [][]byte
	err    error
}

func (c *chunkReader) Read(p []byte) (int, error) {
	if len(c.chunks) == 0 {
		if c.err != nil {
			return 0, c.err
		}
		return 0, io.EOF
	}
	n := copy(p, c.chunks[0])
	if n < len(c.chunks[0]) {
		c.chunks[0] = c.chunks[0][n:]
	} else {
		c.chunks = c.chunks[1:]
	}
	return n, nil
}

func collect(r *sse.Reader) ([]*sse.Event, error) {
	var events []*sse.Event
	for {
		ev, err := r.Next()
		if err != nil {
			return events, err
		}
		if ev == nil {
			return events, nil
		}
		events = append(events, ev)
	}
}

var _ = Describe("Reader", func() {
	Describe("Next", func() {
		It("parses text and tool_result events in order", func() {
			src := strings.NewReader(
				"event: message\ndata: {\"type\":\"text\",\"content\":{\"text\":\"hello\"}}\n\n" +
					"event: message\ndata: {\"type\":\"tool_result\",\"content\":{\"text\":\" world\"}}\n\n")

			events, err := collect(sse.NewReader(src))
			Expect(err).NotTo(HaveOccurred())
			Expect(events).To(HaveLen(2))
			Expect(events[0]).To(Equal(&sse.Event{Kind: sse.KindText, Type: "text", Text: "hello"}))
			Expect(events[1]).To(Equal(&sse.Event{Kind: sse.KindToolResult, Type: "tool_result", Text: " world"}))
		})

		It("classifies unknown types as other", func() {
			src := strings.NewReader("data: {\"type\":\"tool_call\",\"content\":{\"name\":\"fortune\"}}\n" +
				"data: {\"content\":{\"text\":\"untyped\"}}\n")

			events, err := collect(sse.NewReader(src))
			Expect(err).NotTo(HaveOccurred())
			Expect(events).To(HaveLen(2))
			Expect(events[0].Kind).To(Equal(sse.KindOther))
			Expect(events[0].Type).To(Equal("tool_call"))
			Expect(events[0].Text).To(BeEmpty())
			Expect(events[1].Kind).To(Equal(sse.KindOther))
			Expect(events[1].Text).To(Equal("untyped"))
		})

		It("ignores non-string text", func() {
			src := strings.NewReader("data: {\"type\":\"text\",\"content\":{\"text\":42}}\n" +
				"data: {\"type\":\"text\",\"content\":\"flat\"}\n")

			events, err := collect(sse.NewReader(src))
			Expect(err).NotTo(HaveOccurred())
			Expect(events).To(HaveLen(2))
			Expect(events[0].Text).To(BeEmpty())
			Expect(events[1].Text).To(BeEmpty())
		})

		It("skips malformed lines and keeps going", func() {
			var logs bytes.Buffer
			src := strings.NewReader("data: {not json\n" +
				"data: {\"type\":\"text\",\"content\":{\"text\":\"still here\"}}\n")

			r := sse.NewReader(src, sse.WithLogger(logger.New(logger.WithWriter(&logs))))
			events, err := collect(r)
			Expect(err).NotTo(HaveOccurred())
			Expect(events).To(HaveLen(1))
			Expect(events[0].Text).To(Equal("still here"))
			Expect(r.Skipped()).To(Equal(1))
			Expect(logs.String()).To(ContainSubstring("skipping malformed stream line"))
		})

		It("only honours the literal data marker", func() {
			src := strings.NewReader("data:{\"type\":\"text\",\"content\":{\"text\":\"tight\"}}\n" +
				": keep-alive\n" +
				"id: 3\n" +
				"DATA: {\"type\":\"text\",\"content\":{\"text\":\"loud\"}}\n")

			events, err := collect(sse.NewReader(src))
			Expect(err).NotTo(HaveOccurred())
			Expect(events).To(BeEmpty())
		})

		It("accepts CRLF line endings", func() {
			src := strings.NewReader("data: {\"type\":\"text\",\"content\":{\"text\":\"crlf\"}}\r\n\r\n")

			events, err := collect(sse.NewReader(src))
			Expect(err).NotTo(HaveOccurred())
			Expect(events).To(HaveLen(1))
			Expect(events[0].Text).To(Equal("crlf"))
		})

		It("reassembles lines and characters split across reads", func() {
			raw := []byte("data: {\"type\":\"text\",\"content\":{\"text\":\"幸运数字 7\"}}\n")
			src := &chunkReader{chunks: [][]byte{raw[:10], raw[10:42], raw[42:43], raw[43:]}}

			events, err := collect(sse.NewReader(src))
			Expect(err).NotTo(HaveOccurred())
			Expect(events).To(HaveLen(1))
			Expect(events[0].Text).To(Equal("幸运数字 7"))
		})

		It("works with one-byte reads", func() {
			raw := "data: {\"type\":\"text\",\"content\":{\"text\":\"a\"}}\ndata: {\"type\":\"text\",\"content\":{\"text\":\"b\"}}\n"
			events, err := collect(sse.NewReader(iotest.OneByteReader(strings.NewReader(raw))))
			Expect(err).NotTo(HaveOccurred())
			Expect(events).To(HaveLen(2))
		})

		It("discards an unterminated final line", func() {
			src := strings.NewReader("data: {\"type\":\"text\",\"content\":{\"text\":\"kept\"}}\n" +
				"data: {\"type\":\"text\",\"content\":{\"text\":\"lost\"}}")

			events, err := collect(sse.NewReader(src))
			Expect(err).NotTo(HaveOccurred())
			Expect(events).To(HaveLen(1))
			Expect(events[0].Text).To(Equal("kept"))
		})

		It("returns nil, nil for an empty stream", func() {
			ev, err := sse.NewReader(strings.NewReader("")).Next()
			Expect(err).NotTo(HaveOccurred())
			Expect(ev).To(BeNil())
		})

		It("is not restartable", func() {
			r := sse.NewReader(strings.NewReader("data: {\"type\":\"text\",\"content\":{\"text\":\"once\"}}\n"))
			_, err := collect(r)
			Expect(err).NotTo(HaveOccurred())

			ev, err := r.Next()
			Expect(err).NotTo(HaveOccurred())
			Expect(ev).To(BeNil())
		})
	})

	Describe("read failures", func() {
		It("delivers completed events then a sticky StreamReadError", func() {
			boom := errors.New("connection reset")
			src := &chunkReader{
				chunks: [][]byte{[]byte("data: {\"type\":\"text\",\"content\":{\"text\":\"partial\"}}\n")},
				err:    boom,
			}
			r := sse.NewReader(src)

			ev, err := r.Next()
			Expect(err).NotTo(HaveOccurred())
			Expect(ev.Text).To(Equal("partial"))

			_, err = r.Next()
			var readErr *sse.StreamReadError
			Expect(errors.As(err, &readErr)).To(BeTrue())
			Expect(errors.Is(err, boom)).To(BeTrue())

			_, again := r.Next()
			Expect(again).To(Equal(err))
		})
	})

	Describe("WithTee", func() {
		It("copies the raw stream verbatim", func() {
			raw := "event: message\ndata: {\"type\":\"text\",\"content\":{\"text\":\"x\"}}\n\ndata: {bad\ntrailing"
			var dump bytes.Buffer

			_, err := collect(sse.NewReader(strings.NewReader(raw), sse.WithTee(&dump)))
			Expect(err).NotTo(HaveOccurred())
			Expect(dump.String()).To(Equal(raw))
		})
	})
})
