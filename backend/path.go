package backend

import "github.com/arloliu/measio/nodepath"

// Resolve validates path and returns its segments. Relative paths are resolved
// against the root, and both "" and "/" resolve to no segments.
func Resolve(path string) ([]string, error) {
	if nodepath.IsRoot(path) {
		return nil, nil
	}
	if err := nodepath.Validate(path); err != nil {
		return nil, err
	}

	return nodepath.Explode(path), nil
}
