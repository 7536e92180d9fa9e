package tools

import (
	"context"
	"fmt"
	"strings"
)

// Availability answers scheduling questions from a configured list of
// open meeting slots.
type Availability struct {
	slots []string
}

// NewAvailability creates the availability tool. slots are free-form
// descriptions such as "Tuesday 14:00-15:00 UTC".
func NewAvailability(slots []string) *Availability {
	return &Availability{slots: slots}
}

func (a *Availability) Name() string { return "availability" }

func (a *Availability) Run(ctx context.Context, query string, args map[string]string) (string, error) {
	if len(a.slots) == 0 {
		return "There are currently no open meeting slots. Please check back later or send a contact message instead.", nil
	}

	var b strings.Builder
	b.WriteString("The portfolio owner is available at the following times:\n")
	for _, slot := range a.slots {
		fmt.Fprintf(&b, "- %s\n", slot)
	}
	b.WriteString("Send a contact message to book one of these slots.")
	return b.String(), nil
}
