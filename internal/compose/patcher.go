// Package compose implements the directive patcher for compose documents.
//
// Documents are treated as operator-authored text, not as a parsed object
// model: routing directives for one service are replaced or inserted by
// line-based scanning with indentation tracking, and every byte outside
// the service's directive region is preserved exactly. A YAML round-trip
// would reflow the whole document and destroy hand-edited formatting,
// which is why no YAML object model is used here.
package compose

import (
	"errors"
	"fmt"
	"strings"

	"evalgo.org/stackyard/models"
)

// ErrServiceNotFound means the named service block is absent from the
// document, or is structurally unusable (no networks: sibling to anchor
// the directive region). The patcher never fabricates service blocks;
// service topology is a provisioning concern.
var ErrServiceNotFound = errors.New("service not found in compose document")

// labelsKey and networksKey are the literal boundary markers of a
// service's directive region.
const (
	labelsKey   = "labels:"
	networksKey = "networks:"
)

// Patch returns a copy of the document in which the routing directive
// block of the named service is replaced by the given directives. Three
// cases:
//
//  1. the service has no labels: block -> the rendered block is inserted
//     immediately before the service's networks: key
//  2. the service has a labels: block -> it is replaced wholesale
//  3. the service section (or its networks: sibling) is missing, or a
//     labels: key sits after networks: -> ErrServiceNotFound
//
// Patch is a pure function: applying the same directives twice yields a
// byte-identical document, and bytes outside the service's directive
// region are never touched.
func Patch(document, serviceName string, directives models.DirectiveBlock) (string, error) {
	if serviceName == "" {
		return "", fmt.Errorf("%w: empty service name", ErrServiceNotFound)
	}

	lines := strings.Split(document, "\n")

	header, err := findServiceHeader(lines, serviceName)
	if err != nil {
		return "", err
	}

	sectionEnd := findSectionEnd(lines, header)
	bodyIndent := findBodyIndent(lines, header, sectionEnd)
	if bodyIndent < 0 {
		return "", fmt.Errorf("%w: service %q has an empty body", ErrServiceNotFound, serviceName)
	}

	networksIdx := findServiceKey(lines, header.index+1, sectionEnd, bodyIndent, networksKey)
	if networksIdx < 0 {
		// No networks: sibling means no anchor for the directive region.
		// Treated as a structural failure rather than guessing a fallback
		// insertion point.
		return "", fmt.Errorf("%w: service %q has no %s key", ErrServiceNotFound, serviceName, networksKey)
	}

	// A labels: key after networks: sits outside the region the patcher
	// owns; inserting a fresh block would leave the document with duplicate
	// keys and stale directives. Rejected as structural, like a missing
	// networks: anchor.
	if stray := findServiceKey(lines, networksIdx+1, sectionEnd, bodyIndent, labelsKey); stray >= 0 {
		return "", fmt.Errorf("%w: service %q has %s after %s", ErrServiceNotFound, serviceName, labelsKey, networksKey)
	}

	block := renderBlock(directives, bodyIndent)

	labelsIdx := findServiceKey(lines, header.index+1, networksIdx, bodyIndent, labelsKey)

	var patched []string
	if labelsIdx >= 0 {
		// Replace everything from labels: up to networks: wholesale.
		patched = append(patched, lines[:labelsIdx]...)
		patched = append(patched, block...)
		patched = append(patched, lines[networksIdx:]...)
	} else {
		// Insert the rendered block immediately before networks:.
		patched = append(patched, lines[:networksIdx]...)
		patched = append(patched, block...)
		patched = append(patched, lines[networksIdx:]...)
	}

	return strings.Join(patched, "\n"), nil
}

// HasService reports whether the document contains a service block with
// the given name under its top-level services: key.
func HasService(document, serviceName string) bool {
	_, err := findServiceHeader(strings.Split(document, "\n"), serviceName)
	return err == nil
}

// serviceHeader locates one service's header line.
type serviceHeader struct {
	index  int
	indent int
}

// findServiceHeader scans for the named service as a direct child of the
// top-level services: key.
func findServiceHeader(lines []string, serviceName string) (serviceHeader, error) {
	want := serviceName + ":"

	inServices := false
	serviceIndent := -1

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		indent := indentOf(line)

		if indent == 0 {
			inServices = trimmed == "services:"
			serviceIndent = -1
			continue
		}

		if !inServices {
			continue
		}

		// The first child of services: fixes the service header indent.
		if serviceIndent < 0 {
			serviceIndent = indent
		}
		if indent != serviceIndent {
			continue
		}

		if trimmed == want {
			return serviceHeader{index: i, indent: indent}, nil
		}
	}

	return serviceHeader{}, fmt.Errorf("%w: %q", ErrServiceNotFound, serviceName)
}

// findSectionEnd returns the index of the first line after the service
// header that leaves the service's section (non-blank, indent at or below
// the header's).
func findSectionEnd(lines []string, header serviceHeader) int {
	for i := header.index + 1; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" {
			continue
		}
		if indentOf(lines[i]) <= header.indent {
			return i
		}
	}
	return len(lines)
}

// findBodyIndent returns the indentation of the service's direct keys, or
// -1 when the section has no body.
func findBodyIndent(lines []string, header serviceHeader, sectionEnd int) int {
	for i := header.index + 1; i < sectionEnd; i++ {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		return indentOf(lines[i])
	}
	return -1
}

// findServiceKey returns the index of the first line in [from, to) that is
// a direct service key with the given literal name, or -1.
func findServiceKey(lines []string, from, to, bodyIndent int, key string) int {
	for i := from; i < to; i++ {
		if indentOf(lines[i]) != bodyIndent {
			continue
		}
		if strings.TrimSpace(lines[i]) == key {
			return i
		}
	}
	return -1
}

// renderBlock renders the labels: block for a directive set, indented to
// match the service body. Directive values are double-quoted; Host rules
// carry backticks, which double quotes pass through untouched.
func renderBlock(directives models.DirectiveBlock, bodyIndent int) []string {
	keyIndent := strings.Repeat(" ", bodyIndent)
	itemIndent := strings.Repeat(" ", bodyIndent+2)

	block := make([]string, 0, len(directives)+1)
	block = append(block, keyIndent+labelsKey)
	for _, d := range directives {
		block = append(block, fmt.Sprintf("%s- %q", itemIndent, d))
	}
	return block
}

// indentOf counts leading spaces. Tabs are not valid YAML indentation and
// operator documents here never carry them.
func indentOf(line string) int {
	return len(line) - len(strings.TrimLeft(line, " "))
}
