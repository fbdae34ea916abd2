package sse

import (
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/workcharge/charge/pkg/logger"
)

// dataPrefix is the only line marker the agent stream uses for payloads.
// "event:", "id:" and comment lines are ignored.
const dataPrefix = "data: "

const readBufferSize = 4 * 1024

// Reader yields Events from an agent stream. It is single use: once Next
// has returned nil, nil or an error, it keeps returning the same result.
type Reader struct {
	src    io.Reader
	tee    io.Writer
	logger *slog.Logger

	dec     *Decoder
	buf     []byte
	queue   []*Event
	done    bool
	err     error
	skipped int
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithTee copies every raw byte read from the stream to w.
func WithTee(w io.Writer) ReaderOption {
	return func(r *Reader) {
		r.tee = w
	}
}

// WithLogger sets the logger used to report skipped lines.
func WithLogger(l *slog.Logger) ReaderOption {
	return func(r *Reader) {
		r.logger = l
	}
}

func NewReader(src io.Reader, opts ...ReaderOption) *Reader {
	r := &Reader{
		src:    src,
		logger: logger.Nop(),
		dec:    NewDecoder(),
		buf:    make([]byte, readBufferSize),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Next blocks until the next event is available. It returns nil, nil when
// the stream ends and a *StreamReadError when reading the source fails.
// Malformed payloads are logged and skipped.
func (r *Reader) Next() (*Event, error) {
	for {
		if len(r.queue) > 0 {
			ev := r.queue[0]
			r.queue = r.queue[1:]
			return ev, nil
		}

		if r.err != nil {
			return nil, r.err
		}
		if r.done {
			return nil, nil
		}

		r.fill()
	}
}

// Skipped returns how many malformed lines were dropped so far.
func (r *Reader) Skipped() int {
	return r.skipped
}

// fill performs one read and queues the events it completes.
func (r *Reader) fill() {
	n, err := r.src.Read(r.buf)
	if n > 0 {
		if r.tee != nil {
			if _, werr := r.tee.Write(r.buf[:n]); werr != nil {
				r.logger.Debug("stream tee write failed", "error", werr)
				r.tee = nil
			}
		}

		for _, line := range r.dec.Feed(r.buf[:n]) {
			ev, perr := parseLine(line)
			if perr != nil {
				r.skipped++
				r.logger.Warn("skipping malformed stream line", "error", perr)
				continue
			}
			if ev != nil {
				r.queue = append(r.queue, ev)
			}
		}
	}

	switch {
	case err == nil:
	case errors.Is(err, io.EOF):
		r.done = true
		if dropped := r.dec.Close(); dropped > 0 {
			r.logger.Debug("discarding unterminated stream tail", "bytes", dropped)
		}
	default:
		r.err = &StreamReadError{Err: err}
		r.dec.Close()
	}
}

// parseLine returns nil, nil for lines that carry no payload.
func parseLine(line string) (*Event, error) {
	line = strings.TrimSuffix(line, "\r")

	payload, ok := strings.CutPrefix(line, dataPrefix)
	if !ok {
		return nil, nil
	}

	if !gjson.Valid(payload) {
		return nil, &MalformedEventError{Line: line}
	}

	typ := gjson.Get(payload, "type")
	ev := &Event{Kind: KindOther}
	if typ.Type == gjson.String {
		ev.Type = typ.String()
		ev.Kind = kindOf(ev.Type)
	}

	if text := gjson.Get(payload, "content.text"); text.Type == gjson.String {
		ev.Text = text.String()
	}

	return ev, nil
}
