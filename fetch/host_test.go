package fetch

import (
	"net/http"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"
)

var _ = Describe("normalizeURL", func() {
	DescribeTable(
		"it converts the host to lowercase ASCII",
		func(raw, expected string) {
			u, err := normalizeURL(raw)
			Expect(err).NotTo(HaveOccurred())
			Expect(u.String()).To(Equal(expected))
		},
		Entry("ascii", "http://Example.ORG/path", "http://example.org/path"),
		Entry("unicode", "http://Bücher.example/", "http://xn--bcher-kva.example/"),
		Entry("with port", "http://Bücher.example:8080/", "http://xn--bcher-kva.example:8080/"),
		Entry("ipv4", "http://127.0.0.1:80/", "http://127.0.0.1:80/"),
		Entry("ipv6", "http://[::1]/", "http://[::1]/"),
	)

	DescribeTable(
		"it rejects URLs that are not absolute",
		func(raw string) {
			_, err := normalizeURL(raw)
			Expect(err).To(MatchError(ContainSubstring("must be absolute")))
		},
		Entry("path only", "/path"),
		Entry("no scheme", "example.org/path"),
		Entry("no host", "file:///path"),
	)
})

var _ = Describe("responseType", func() {
	DescribeTable(
		"it infers the type from the Content-Type header",
		func(contentType, expected string) {
			h := http.Header{}
			if contentType != "" {
				h.Set("Content-Type", contentType)
			}

			Expect(responseType(h)).To(Equal(expected))
		},
		Entry("json", "application/json", RespTypeJSON),
		Entry("json with params", "application/json; charset=utf-8", RespTypeJSON),
		Entry("json suffix", "application/problem+json", RespTypeJSON),
		Entry("mixed case", "Application/JSON", RespTypeJSON),
		Entry("text", "text/plain", RespTypeText),
		Entry("html", "text/html; charset=utf-8", RespTypeText),
		Entry("image", "image/png", RespTypeBlob),
		Entry("octet stream", "application/octet-stream", RespTypeBlob),
		Entry("missing", "", RespTypeBlob),
	)
})

var _ = Describe("responseHeaders", func() {
	It("sorts the fields by name and joins repeated values", func() {
		h := http.Header{
			"X-B":          {"1", "2"},
			"Content-Type": {"text/plain"},
		}

		Expect(responseHeaders(h)).To(Equal(Header{
			{"Content-Type", "text/plain"},
			{"X-B", "1, 2"},
		}))
	})
})
