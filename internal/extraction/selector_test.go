package extraction

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// fakeProvider is a configurable Provider for selector tests
type fakeProvider struct {
	name      string
	available bool
	closeErr  error
	closed    bool
}

func (f *fakeProvider) Name() string {
	return f.name
}

func (f *fakeProvider) Available(ctx context.Context) bool {
	return f.available
}

func (f *fakeProvider) Extract(ctx context.Context, pdfData []byte) (*Result, error) {
	return &Result{Provider: f.name}, nil
}

func (f *fakeProvider) Close() error {
	f.closed = true
	return f.closeErr
}

var _ = Describe("Selector", func() {
	var (
		primary   *fakeProvider
		secondary *fakeProvider
		selector  *Selector
	)

	BeforeEach(func() {
		primary = &fakeProvider{name: "gemini", available: true}
		secondary = &fakeProvider{name: "ollama", available: true}
		selector = NewSelector(primary, secondary)
	})

	Describe("Select", func() {
		When("no name is given", func() {
			It("should return the first available provider", func() {
				p, err := selector.Select(context.Background(), "")
				Expect(err).NotTo(HaveOccurred())
				Expect(p.Name()).To(Equal("gemini"))
			})

			It("should fall through to the next provider when the first is unavailable", func() {
				primary.available = false
				p, err := selector.Select(context.Background(), "")
				Expect(err).NotTo(HaveOccurred())
				Expect(p.Name()).To(Equal("ollama"))
			})

			It("should return ErrNoProviderAvailable when nothing is available", func() {
				primary.available = false
				secondary.available = false
				_, err := selector.Select(context.Background(), "")
				Expect(err).To(MatchError(ErrNoProviderAvailable))
			})
		})

		When("a name is given", func() {
			It("should return the named provider", func() {
				p, err := selector.Select(context.Background(), "ollama")
				Expect(err).NotTo(HaveOccurred())
				Expect(p.Name()).To(Equal("ollama"))
			})

			It("should match names case-insensitively", func() {
				p, err := selector.Select(context.Background(), "Gemini")
				Expect(err).NotTo(HaveOccurred())
				Expect(p.Name()).To(Equal("gemini"))
			})

			It("should fail when the named provider is unavailable", func() {
				secondary.available = false
				_, err := selector.Select(context.Background(), "ollama")
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("not available"))
			})

			It("should not fall back to another provider", func() {
				secondary.available = false
				_, err := selector.Select(context.Background(), "ollama")
				Expect(err).To(HaveOccurred())
			})

			It("should fail for an unknown provider name", func() {
				_, err := selector.Select(context.Background(), "gpt")
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("unknown provider"))
			})
		})
	})

	Describe("Providers", func() {
		It("should return providers in priority order", func() {
			providers := selector.Providers()
			Expect(providers).To(HaveLen(2))
			Expect(providers[0].Name()).To(Equal("gemini"))
			Expect(providers[1].Name()).To(Equal("ollama"))
		})
	})

	Describe("Close", func() {
		It("should close every provider", func() {
			Expect(selector.Close()).To(Succeed())
			Expect(primary.closed).To(BeTrue())
			Expect(secondary.closed).To(BeTrue())
		})

		It("should return the first close error and still close the rest", func() {
			primary.closeErr = errors.New("close failed")
			err := selector.Close()
			Expect(err).To(MatchError(primary.closeErr))
			Expect(secondary.closed).To(BeTrue())
		})
	})
})
