// Package registry defines the registry of the format engines of a package of
// messages.
//
// The default implementation never returns a nil engine. An unknown format
// is served by an engine that fails every request, so that the callers can
// report the format without checking it beforehand.
package registry

import (
	"go.dedis.ch/rgbd/serde"
)

// Registry is an interface to register and get format engines for a specific
// format.
type Registry interface {
	// Register takes a format and its engine and it registers them so that the
	// engine can be looked up later. A second registration replaces the first.
	Register(serde.Format, serde.FormatEngine)

	// Get returns the engine associated with the format.
	Get(serde.Format) serde.FormatEngine

	// Formats returns the registered formats in alphabetical order.
	Formats() []serde.Format
}
