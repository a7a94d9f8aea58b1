package main

import (
	"filmscout/internal/services"
	"filmscout/internal/tools"
)

// describeError turns catalog failures into the same plain-language text the
// tool server returns. Anything unclassified is a usage or setup problem and
// is printed as is.
func describeError(err error) string {
	if services.KindOf(err) == services.KindInternal {
		return err.Error()
	}
	envelope := tools.Envelope(err)
	return "Error: " + envelope.Message
}
