package backend

import (
	"fmt"
	"strings"

	"github.com/arloliu/measio/errs"
	"github.com/arloliu/measio/nodepath"
)

// Name mangling suffixes.
const (
	MappingSuffix  = ".dict"
	SequenceSuffix = ".list"
)

// ReservedPrefix starts every bookkeeping name.
const ReservedPrefix = "_"

// Reserved names written by the stores and the object walker.
const (
	ClassName      = "_class"
	VersionName    = "_version"
	DimensionsName = "_dimensions"
	MetadataName   = "_metadata"
)

// MappingName returns the stored name of the mapping called name.
func MappingName(name string) string {
	return name + MappingSuffix
}

// SequenceName returns the stored name of the sequence called name.
func SequenceName(name string) string {
	return name + SequenceSuffix
}

// StripMapping returns the external name of a stored mapping name.
func StripMapping(stored string) (string, bool) {
	return strings.CutSuffix(stored, MappingSuffix)
}

// StripSequence returns the external name of a stored sequence name.
func StripSequence(stored string) (string, bool) {
	return strings.CutSuffix(stored, SequenceSuffix)
}

// IsReserved reports whether name is a bookkeeping name hidden from enumeration.
func IsReserved(name string) bool {
	return strings.HasPrefix(name, ReservedPrefix)
}

// ValidateName checks that name can be stored as an attribute name.
func ValidateName(name string) error {
	if !nodepath.ValidName(name) {
		return fmt.Errorf("%w: %q is not a valid attribute name", errs.ErrInvalidPath, name)
	}

	return nil
}
