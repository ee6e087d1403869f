package xhr_test

import (
	"context"
	"io/ioutil"
	"net/http/httptest"
	"os"
	"strings"
	"time"

	"github.com/icecave/fetchblob/blob"
	"github.com/icecave/fetchblob/echo"
	"github.com/icecave/fetchblob/event"
	"github.com/icecave/fetchblob/fetch"
	"github.com/icecave/fetchblob/xhr"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Request with the fetch engine", func() {
	var (
		server  *httptest.Server
		dir     string
		client  *fetch.Client
		subject *xhr.Request
		events  *trace
	)

	BeforeEach(func() {
		var err error
		dir, err = ioutil.TempDir("", "xhr-test")
		Expect(err).NotTo(HaveOccurred())

		server = httptest.NewServer(&echo.Handler{})
		client = &fetch.Client{Store: &blob.FileStore{Dir: dir}}
		subject = xhr.New(client)
		events = &trace{}
		events.listen("", &subject.Target, allEvents...)
		events.listen("upload:", subject.Upload(), allEvents...)
	})

	AfterEach(func() {
		server.Close()
		os.RemoveAll(dir)
	})

	done := func() {
		Eventually(subject.ReadyState, 5*time.Second).Should(Equal(xhr.Done))
	}

	It("decodes a JSON response", func() {
		subject.Open("GET", server.URL+"/unicode")
		Expect(subject.Send(nil)).To(Succeed())
		done()

		Expect(subject.Status()).To(Equal(200))
		Expect(subject.ResponseType()).To(Equal("json"))
		Expect(subject.Response()).To(Equal(map[string]interface{}{"data": "你好!"}))

		v, ok := subject.GetResponseHeader("Content-Type")
		Expect(ok).To(BeTrue())
		Expect(v).To(HavePrefix("application/json"))

		names := events.Names()
		Expect(names).To(ContainElement("progress"))
		Expect(names[len(names)-3:]).To(Equal([]string{"load", "loadend", "readystatechange"}))
	})

	It("sends a composite body as JSON and reports upload progress", func() {
		subject.Open("POST", server.URL+"/echo")
		Expect(subject.SetRequestHeader("X-Test", "value")).To(Succeed())
		Expect(subject.Send(map[string]int{"a": 1})).To(Succeed())
		done()

		response, ok := subject.Response().(map[string]interface{})
		Expect(ok).To(BeTrue())
		Expect(response["method"]).To(Equal("POST"))
		Expect(response["body"]).To(Equal(`{"a":1}`))
		Expect(response["headers"]).To(HaveKeyWithValue("x-test", "value"))

		Expect(events.Names()).To(ContainElement("upload:loadstart"))
		Expect(events.Names()).To(ContainElement("upload:load"))
	})

	It("exposes a binary response as a blob", func() {
		subject.Open("GET", server.URL+"/redirect")
		Expect(subject.Send(nil)).To(Succeed())
		done()

		Expect(subject.ResponseURL()).To(Equal(server.URL + "/public/github.png"))

		b, ok := subject.Response().(*blob.Blob)
		Expect(ok).To(BeTrue())

		content, err := b.Bytes(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(content).To(Equal(echo.Image))
	})

	It("uploads a blob body", func() {
		b, err := blob.Create(context.Background(), client.Store, strings.NewReader("<staged>"), "text/plain")
		Expect(err).NotTo(HaveOccurred())

		subject.Open("PUT", server.URL+"/echo")
		Expect(subject.Send(b)).To(Succeed())
		done()

		response := subject.Response().(map[string]interface{})
		Expect(response["body"]).To(Equal("<staged>"))
	})

	It("reports a timeout", func() {
		subject.SetTimeout(0.1)
		subject.Open("GET", server.URL+"/slow?delay=2s")
		Expect(subject.Send(nil)).To(Succeed())
		done()

		Expect(events.Names()).To(ContainElement("timeout"))
		Expect(events.Names()).To(ContainElement("error"))

		// The status is the first number in "request timed out after 100ms".
		Expect(subject.Status()).To(Equal(100))
	})

	It("aborts a request in flight", func() {
		aborted := make(chan struct{})
		subject.SetOnAbort(func() { close(aborted) })

		subject.Open("GET", server.URL+"/slow?delay=2s")
		Expect(subject.Send(nil)).To(Succeed())
		subject.Abort()

		Eventually(aborted, 5*time.Second).Should(BeClosed())
		Eventually(events.Names).Should(ContainElement("abort"))
		Expect(events.Names()).NotTo(ContainElement("error"))
		Expect(subject.Task()).To(BeNil())
		Expect(subject.ReadyState()).To(Equal(xhr.Opened))
	})

	It("reports an unreachable server as an error", func() {
		server.Close()

		subject.Open("GET", server.URL+"/echo")
		Expect(subject.Send(nil)).To(Succeed())
		done()

		ev, ok := events.find(event.Error)
		Expect(ok).To(BeTrue())
		Expect(ev.Detail).To(MatchError(ContainSubstring("connection refused")))
	})
})
