package docker

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultTag is appended to references that carry neither tag nor digest.
const DefaultTag = "latest"

var referencePattern = regexp.MustCompile(
	`^(?:[a-zA-Z0-9.-]+(?::[0-9]+)?/)?` + // registry
		`[a-z0-9]+(?:(?:[._]|__|-+)[a-z0-9]+)*(?:/[a-z0-9]+(?:(?:[._]|__|-+)[a-z0-9]+)*)*` + // path
		`(?::[\w][\w.-]{0,127})?` + // tag
		`(?:@sha256:[a-f0-9]{64})?$`, // digest
)

// NormalizeReference validates an image reference and adds the default tag
// when it has neither a tag nor a digest.
func NormalizeReference(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" || !referencePattern.MatchString(ref) {
		return "", fmt.Errorf("invalid image reference %q", ref)
	}
	if strings.Contains(ref, "@") {
		return ref, nil
	}
	name := ref[strings.LastIndex(ref, "/")+1:]
	if strings.Contains(name, ":") {
		return ref, nil
	}
	return ref + ":" + DefaultTag, nil
}
