// Package nodepath validates and manipulates slash-delimited node addresses.
//
// A node path is either absolute ("/a/b") or relative ("a/b"). The bare
// separator "/" and the empty string both denote the root node. Every function
// in this package is pure: nothing here performs I/O.
package nodepath

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/arloliu/measio/errs"
)

// Separator joins node names in a path.
const Separator = "/"

// Root is the canonical absolute path of the root node.
const Root = Separator

const forbidden = "\"':\\?!*<>|"

var (
	// identifier names start with a letter or underscore.
	identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	// index names are all digits; they address positional children.
	indexPattern = regexp.MustCompile(`^[0-9]+$`)
)

// ValidName reports whether name may be used as a single node or attribute name.
func ValidName(name string) bool {
	return identifierPattern.MatchString(name) || indexPattern.MatchString(name)
}

// Validate checks that path is a well formed node path.
//
// It returns an error wrapping errs.ErrInvalidPath when the path is empty,
// contains whitespace or one of the forbidden characters, contains an empty
// segment, ends with a separator (other than the bare root) or has a segment
// that is neither an identifier nor an all-digit index.
func Validate(path string) error {
	if path == "" {
		return fmt.Errorf("%w: empty path", errs.ErrInvalidPath)
	}
	if path == Root {
		return nil
	}
	if strings.ContainsAny(path, forbidden) {
		return fmt.Errorf("%w: %q contains a forbidden character", errs.ErrInvalidPath, path)
	}
	if strings.IndexFunc(path, isSpace) >= 0 {
		return fmt.Errorf("%w: %q contains whitespace", errs.ErrInvalidPath, path)
	}
	if strings.Contains(path, Separator+Separator) {
		return fmt.Errorf("%w: %q contains an empty segment", errs.ErrInvalidPath, path)
	}
	if strings.HasSuffix(path, Separator) {
		return fmt.Errorf("%w: %q ends with a separator", errs.ErrInvalidPath, path)
	}
	for _, name := range Explode(path) {
		if !ValidName(name) {
			return fmt.Errorf("%w: invalid segment %q in %q", errs.ErrInvalidPath, name, path)
		}
	}

	return nil
}

// Split divides path into its parent path and final segment.
//
//	Split("")               // "", ""
//	Split("one")            // "", "one"
//	Split("/one")           // "/", "one"
//	Split("/one/two/three") // "/one/two", "three"
func Split(path string) (parent, leaf string) {
	i := strings.LastIndex(path, Separator)
	switch {
	case i < 0:
		return "", path
	case i == 0:
		return Root, path[1:]
	default:
		return path[:i], path[i+1:]
	}
}

// Explode returns the ordered segment names of path. The root yields an empty slice.
func Explode(path string) []string {
	segments := strings.Split(path, Separator)
	names := make([]string, 0, len(segments))
	for _, s := range segments {
		if s != "" {
			names = append(names, s)
		}
	}

	return names
}

// Join concatenates path parts with the separator.
//
// Parts are scanned left to right; an absolute part discards everything
// accumulated so far, so the last absolute part wins:
//
//	Join("one", "two", "three")    // "one/two/three"
//	Join("/one", "/two", "/three") // "/three"
//	Join("/", "name")              // "/name"
func Join(parts ...string) string {
	var joined string
	for _, part := range parts {
		switch {
		case part == "":
			continue
		case IsAbsolute(part), joined == "":
			joined = part
		case strings.HasSuffix(joined, Separator):
			joined += part
		default:
			joined += Separator + part
		}
	}

	return joined
}

// IsAbsolute reports whether path starts at the root.
func IsAbsolute(path string) bool {
	return strings.HasPrefix(path, Separator)
}

// IsRoot reports whether path denotes the root node.
func IsRoot(path string) bool {
	return path == "" || path == Root
}

func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}

	return false
}
