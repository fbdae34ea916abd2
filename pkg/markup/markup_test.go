package markup_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/workcharge/charge/pkg/markup"
)

var _ = Describe("Render", func() {
	It("renders bold, italic and inline code", func() {
		Expect(markup.Render("**bold** and *italic* and `code`")).
			To(Equal("<strong>bold</strong> and <em>italic</em> and <code>code</code>"))
	})

	It("escapes tags", func() {
		Expect(markup.Render("<script>")).To(Equal("&lt;script&gt;"))
	})

	It("escapes ampersands first", func() {
		Expect(markup.Render("a & b <c>")).To(Equal("a &amp; b &lt;c&gt;"))
		Expect(markup.Render("&lt;")).To(Equal("&amp;lt;"))
	})

	It("renders links that open a new context without leaking the opener", func() {
		Expect(markup.Render("[go](https://x.test)")).
			To(Equal(`<a href="https://x.test" target="_blank" rel="noopener noreferrer">go</a>`))
	})

	It("renders images", func() {
		Expect(markup.Render("![chart](https://x.test/trend.png)")).
			To(Equal(`<img src="https://x.test/trend.png" alt="chart">`))
	})

	It("renders images with an empty alt", func() {
		Expect(markup.Render("![](https://x.test/a.png)")).
			To(Equal(`<img src="https://x.test/a.png" alt="">`))
	})

	It("renders a link and an image on the same line", func() {
		Expect(markup.Render("see [docs](https://x.test/d) ![i](https://x.test/i.png)")).
			To(Equal(`see <a href="https://x.test/d" target="_blank" rel="noopener noreferrer">docs</a> <img src="https://x.test/i.png" alt="i">`))
	})

	It("turns newlines into line breaks", func() {
		Expect(markup.Render("line one\nline two")).To(Equal("line one<br>line two"))
	})

	It("renders fenced code blocks without touching their body", func() {
		in := "before\n```go\nx := **y** * `z`\n```\nafter **b**"
		Expect(markup.Render(in)).
			To(Equal("before<br><pre><code>x := **y** * `z`<br></code></pre><br>after <strong>b</strong>"))
	})

	It("renders fences without a language tag", func() {
		Expect(markup.Render("```\n1 < 2\n```")).To(Equal("<pre><code>1 &lt; 2<br></code></pre>"))
	})

	It("keeps every word of a single-line fence", func() {
		Expect(markup.Render("```hello```")).To(Equal("<pre><code>hello</code></pre>"))
		Expect(markup.Render("```echo hi```")).To(Equal("<pre><code>echo hi</code></pre>"))
		Expect(markup.Render("run ```ls -la``` now")).To(Equal("run <pre><code>ls -la</code></pre> now"))
	})

	It("neutralizes script URLs", func() {
		Expect(markup.Render("[x](javascript:alert(1))")).To(ContainSubstring(`href="#"`))
		Expect(markup.Render("![x](JavaScript:alert(1))")).To(ContainSubstring(`src="#"`))
	})

	It("allows image data URLs but not link data URLs", func() {
		Expect(markup.Render("![x](data:image/png;base64,AAAA)")).To(ContainSubstring(`src="data:image/png;base64,AAAA"`))
		Expect(markup.Render("[x](data:text/html;base64,AAAA)")).To(ContainSubstring(`href="#"`))
	})

	It("keeps quotes from breaking out of attributes", func() {
		Expect(markup.Render(`[x](https://x.test/" onmouseover="evil)`)).
			To(ContainSubstring(`href="https://x.test/&quot; onmouseover=&quot;evil"`))
	})

	It("leaves plain text alone", func() {
		Expect(markup.Render("今日宜出行")).To(Equal("今日宜出行"))
		Expect(markup.Render("")).To(BeEmpty())
	})

	It("is not idempotent", func() {
		once := markup.Render("<b>")
		Expect(markup.Render(once)).To(Equal("&amp;lt;b&amp;gt;"))
	})
})
