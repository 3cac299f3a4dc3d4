//go:build !unix

package directory

import "os"

// mapFile reads the file at path into memory on platforms without mmap.
func mapFile(path string) ([]byte, func([]byte) error, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	return data, func([]byte) error { return nil }, nil
}
