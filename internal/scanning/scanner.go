package scanning

import (
	"errors"
	"strings"
)

// Engine names an OCR backend
type Engine string

const (
	EngineTesseract Engine = "tesseract"
	EngineGemini    Engine = "gemini"
	EngineOllama    Engine = "ollama"
)

// Kind distinguishes classic pattern-based OCR from vision models
type Kind string

const (
	KindPatternBased Kind = "pattern"
	KindModelBased   Kind = "model"
)

// ErrUnknownEngine is returned for engine names that are not registered
var ErrUnknownEngine = errors.New("unknown OCR engine")

// Kind returns which family the engine belongs to
func (e Engine) Kind() Kind {
	if e == EngineTesseract {
		return KindPatternBased
	}
	return KindModelBased
}

// ParseEngine normalises an engine name
func ParseEngine(name string) (Engine, error) {
	switch e := Engine(strings.ToLower(strings.TrimSpace(name))); e {
	case EngineTesseract, EngineGemini, EngineOllama:
		return e, nil
	default:
		return "", ErrUnknownEngine
	}
}

// Scanner turns a receipt image into a single blob of text
type Scanner interface {
	// ReadText runs OCR over a receipt image/PDF and returns all recognised text
	ReadText(imageData []byte, contentType string) (string, error)
	// Close closes the scanner and releases resources
	Close() error
}
