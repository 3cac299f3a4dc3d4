//go:build unix

package directory

import (
	"fmt"
	"math"
	"os"

	"golang.org/x/sys/unix"

	"github.com/arloliu/measio/errs"
)

// mapFile maps the whole file at path read-only.
func mapFile(path string) ([]byte, func([]byte) error, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, nil, err
	}
	if fi.Size() == 0 {
		return nil, nil, fmt.Errorf("%w: %s is empty", errs.ErrInvalidHeaderSize, path)
	}
	if fi.Size() > math.MaxInt {
		return nil, nil, fmt.Errorf("%w: %s is too large to map", errs.ErrInvalidShape, path)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(fi.Size()), unix.PROT_READ, unix.MAP_SHARED) //nolint:gosec
	if err != nil {
		return nil, nil, err
	}

	return data, unix.Munmap, nil
}
