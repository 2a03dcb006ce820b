package scanning

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type fakeScanner struct {
	closed bool
}

func (f *fakeScanner) ReadText(imageData []byte, contentType string) (string, error) {
	return "", nil
}

func (f *fakeScanner) Close() error {
	f.closed = true
	return nil
}

var _ = Describe("Load", func() {
	var (
		gemini        *fakeScanner
		openers       map[Engine]Opener
		defaultEngine Engine
		scanners      map[Engine]Scanner
		err           error
	)

	BeforeEach(func() {
		gemini = &fakeScanner{}
		openers = map[Engine]Opener{
			EngineTesseract: func() (Scanner, error) { return nil, errors.New("eng.traineddata not found") },
			EngineGemini:    func() (Scanner, error) { return gemini, nil },
		}
	})

	JustBeforeEach(func() {
		scanners, err = Load(openers, defaultEngine)
	})

	When("a non-default engine fails to open", func() {
		BeforeEach(func() {
			defaultEngine = EngineGemini
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should register only the engines that opened", func() {
			Expect(scanners).To(HaveLen(1))
			Expect(scanners).To(HaveKey(EngineGemini))
			Expect(scanners).NotTo(HaveKey(EngineTesseract))
		})
	})

	When("the default engine fails to open", func() {
		BeforeEach(func() {
			defaultEngine = EngineTesseract
		})

		It("returns ErrUnknownEngine", func() {
			Expect(err).To(MatchError(ErrUnknownEngine))
			Expect(scanners).To(BeNil())
		})

		It("should close the engines that did open", func() {
			Expect(gemini.closed).To(BeTrue())
		})
	})

	When("the default engine was never requested", func() {
		BeforeEach(func() {
			defaultEngine = EngineOllama
		})

		It("returns ErrUnknownEngine", func() {
			Expect(err).To(MatchError(ErrUnknownEngine))
		})
	})
})
