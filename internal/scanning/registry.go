package scanning

import (
	"fmt"
	"log/slog"
)

// Opener creates a Scanner for one engine
type Opener func() (Scanner, error)

// Load opens every engine in openers. An engine that fails to open is logged
// and left out. It is an error only when defaultEngine is not among those opened.
func Load(openers map[Engine]Opener, defaultEngine Engine) (map[Engine]Scanner, error) {
	scanners := make(map[Engine]Scanner, len(openers))
	for engine, open := range openers {
		sc, err := open()
		if err != nil {
			slog.Warn("OCR engine unavailable", "engine", engine, "error", err)
			continue
		}
		scanners[engine] = sc
	}

	if _, ok := scanners[defaultEngine]; !ok {
		for _, sc := range scanners {
			sc.Close()
		}
		return nil, fmt.Errorf("%w: default engine %s is not available", ErrUnknownEngine, defaultEngine)
	}
	return scanners, nil
}
