package sse

import (
	"errors"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Decoder incrementally turns byte chunks into newline-terminated lines.
// Chunks may end anywhere, including inside a multi-byte character or in
// the middle of a line; the remainder is held until the next Feed.
type Decoder struct {
	utf8    transform.Transformer
	pending []byte
	partial strings.Builder
}

func NewDecoder() *Decoder {
	return &Decoder{utf8: unicode.UTF8.NewDecoder()}
}

// Feed decodes chunk and returns every line it completes, without the
// trailing "\n". Invalid UTF-8 is replaced with U+FFFD.
func (d *Decoder) Feed(chunk []byte) []string {
	text := d.decode(chunk)
	if text == "" {
		return nil
	}

	var lines []string
	for {
		i := strings.IndexByte(text, '\n')
		if i < 0 {
			d.partial.WriteString(text)
			return lines
		}

		d.partial.WriteString(text[:i])
		lines = append(lines, d.partial.String())
		d.partial.Reset()
		text = text[i+1:]
	}
}

// Close ends the stream. Undecoded bytes and the unterminated last line are
// dropped; the number of dropped bytes is returned.
func (d *Decoder) Close() int {
	dropped := len(d.pending) + d.partial.Len()
	d.pending = nil
	d.partial.Reset()
	d.utf8.Reset()
	return dropped
}

func (d *Decoder) decode(chunk []byte) string {
	src := chunk
	if len(d.pending) > 0 {
		src = append(d.pending, chunk...)
		d.pending = nil
	}

	var out strings.Builder
	dst := make([]byte, len(src)+utf8.UTFMax)
	for len(src) > 0 {
		nDst, nSrc, err := d.utf8.Transform(dst, src, false)
		out.Write(dst[:nDst])
		src = src[nSrc:]

		switch {
		case err == nil:
		case errors.Is(err, transform.ErrShortSrc):
			// Incomplete trailing sequence: wait for the next chunk.
			d.pending = append([]byte(nil), src...)
			return out.String()
		case errors.Is(err, transform.ErrShortDst):
			if nDst == 0 && nSrc == 0 {
				dst = make([]byte, 2*len(dst))
			}
		default:
			// The UTF-8 decoder replaces invalid input instead of failing.
			out.Write(src)
			return out.String()
		}
	}

	return out.String()
}
