package blob_test

import (
	"context"
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/icecave/fetchblob/blob"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("FileStore", func() {
	var (
		ctx     context.Context
		dir     string
		subject *blob.FileStore
	)

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		dir, err = ioutil.TempDir("", "fetchblob-test")
		Expect(err).NotTo(HaveOccurred())

		subject = &blob.FileStore{Dir: filepath.Join(dir, "staging")}
	})

	AfterEach(func() {
		os.RemoveAll(dir)
	})

	Describe("Put", func() {
		It("stages the payload as a file in the directory", func() {
			ref, n, err := subject.Put(ctx, strings.NewReader("<payload>"), -1, "text/plain")
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(BeEquivalentTo(9))
			Expect(filepath.Dir(ref)).To(Equal(subject.Dir))

			content, err := ioutil.ReadFile(ref)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(content)).To(Equal("<payload>"))
		})

		It("produces a distinct reference for each payload", func() {
			a, _, err := subject.Put(ctx, strings.NewReader("a"), 1, "")
			Expect(err).NotTo(HaveOccurred())
			b, _, err := subject.Put(ctx, strings.NewReader("b"), 1, "")
			Expect(err).NotTo(HaveOccurred())

			Expect(a).NotTo(Equal(b))
		})
	})

	Describe("Open", func() {
		It("returns the payload and its size", func() {
			ref, _, err := subject.Put(ctx, strings.NewReader("<payload>"), -1, "")
			Expect(err).NotTo(HaveOccurred())

			r, size, err := subject.Open(ctx, ref)
			Expect(err).NotTo(HaveOccurred())
			defer r.Close()

			Expect(size).To(BeEquivalentTo(9))
			content, err := ioutil.ReadAll(r)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(content)).To(Equal("<payload>"))
		})

		It("returns ErrNotFound for an unknown reference", func() {
			_, _, err := subject.Open(ctx, filepath.Join(dir, "missing"))
			Expect(errors.Is(err, blob.ErrNotFound)).To(BeTrue())
		})
	})

	Describe("Remove", func() {
		It("deletes the staged file", func() {
			ref, _, err := subject.Put(ctx, strings.NewReader("x"), 1, "")
			Expect(err).NotTo(HaveOccurred())

			Expect(subject.Remove(ctx, ref)).To(Succeed())

			_, err = os.Stat(ref)
			Expect(os.IsNotExist(err)).To(BeTrue())
		})

		It("returns ErrNotFound when removing twice", func() {
			ref, _, err := subject.Put(ctx, strings.NewReader("x"), 1, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(subject.Remove(ctx, ref)).To(Succeed())

			err = subject.Remove(ctx, ref)
			Expect(errors.Is(err, blob.ErrNotFound)).To(BeTrue())
		})
	})
})

var _ = Describe("Blob", func() {
	var (
		ctx   context.Context
		dir   string
		store *blob.FileStore
	)

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		dir, err = ioutil.TempDir("", "fetchblob-test")
		Expect(err).NotTo(HaveOccurred())

		store = &blob.FileStore{Dir: dir}
	})

	AfterEach(func() {
		os.RemoveAll(dir)
	})

	It("stages, reads and removes a payload", func() {
		b, err := blob.Create(ctx, store, strings.NewReader("hello"), "text/plain")
		Expect(err).NotTo(HaveOccurred())
		Expect(b.Size).To(BeEquivalentTo(5))
		Expect(b.Type).To(Equal("text/plain"))

		content, err := b.Bytes(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(content)).To(Equal("hello"))

		Expect(b.Close(ctx)).To(Succeed())

		_, err = b.Bytes(ctx)
		Expect(errors.Is(err, blob.ErrNotFound)).To(BeTrue())
	})
})
