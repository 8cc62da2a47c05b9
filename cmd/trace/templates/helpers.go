package templates

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Step is one renderer call made while patching.
type Step struct {
	Op     string
	Key    string
	Before string
}

// Report is everything the patch trace prints.
type Report struct {
	Old    []string
	New    []string
	Steps  []Step
	Stable []string
	Stats  string
	Errors []string
	Result string
}

func joined(items []string) string {
	if len(items) == 0 {
		return "(empty)"
	}
	var sb strings.Builder
	sb.WriteByte('[')
	for i, item := range items {
		sb.WriteString(item)
		if i < len(items)-1 {
			sb.WriteString(", ")
		}
	}
	sb.WriteByte(']')
	return sb.String()
}

// fingerprint identifies a key sequence so two traces of the same input can be
// matched up at a glance.
func fingerprint(items []string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(strings.Join(items, "\x00")))
}
