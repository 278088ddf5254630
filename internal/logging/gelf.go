package logging

import (
	"fmt"

	"github.com/Graylog2/go-gelf/gelf"
)

// NewGelfWriter opens a UDP GELF writer for Graylog. Each Write sends one
// message, so it is passed to Setup as an extra writer.
func NewGelfWriter(address, facility string) (*gelf.Writer, error) {
	w, err := gelf.NewWriter(address)
	if err != nil {
		return nil, fmt.Errorf("failed to create gelf writer for %s: %w", address, err)
	}
	w.Facility = facility
	return w, nil
}
