package logutils

import (
	"fmt"
)

// FormatPrinter is a simple wrapper that implements the Stringer interface by
// printing an arbitrary object with a given format specifier/verb.
type FormatPrinter struct {
	verb string
	item any
}

func (v FormatPrinter) String() string {
	return fmt.Sprintf(v.verb, v.item)
}

// Format returns a Stringer that formats item with the given verb. The
// formatting only happens when the value is actually logged, which keeps
// expensive %#+v dumps out of non-debug runs.
func Format(verb string, item any) FormatPrinter {
	return FormatPrinter{verb, item}
}
