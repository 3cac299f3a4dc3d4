package columnar

import (
	"maps"
	"slices"
	"strings"

	"github.com/arloliu/measio/backend"
	"github.com/arloliu/measio/format"
	"github.com/arloliu/measio/nodepath"
	"github.com/arloliu/measio/value"
)

// group is the in-memory index entry of a group record. Names are stored
// names, including the mapping and sequence suffixes.
type group struct {
	path     string
	children map[string]*group
	vars     map[string]*variable
	attrs    map[string]value.Value
	dims     backend.Dimensions
}

func newGroup(path string) *group {
	return &group{
		path:     path,
		children: make(map[string]*group),
		vars:     make(map[string]*variable),
		attrs:    make(map[string]value.Value),
	}
}

func (g *group) childPath(name string) string {
	return nodepath.Join(g.path, name)
}

// has reports whether the external name is taken by any kind of entry.
func (g *group) has(name string) bool {
	_, child := g.children[name]
	_, mapping := g.children[backend.MappingName(name)]
	_, variable := g.vars[name]
	_, sequence := g.vars[backend.SequenceName(name)]
	_, attr := g.attrs[name]

	return child || mapping || variable || sequence || attr
}

func (g *group) nodeNames() []string {
	var names []string
	for _, name := range slices.Sorted(maps.Keys(g.children)) {
		if strings.HasSuffix(name, backend.MappingSuffix) || backend.IsReserved(name) {
			continue
		}
		names = append(names, name)
	}

	return nonNil(names)
}

func (g *group) arrayNames() []string {
	var names []string
	for _, name := range slices.Sorted(maps.Keys(g.vars)) {
		if strings.HasSuffix(name, backend.SequenceSuffix) || backend.IsReserved(name) {
			continue
		}
		names = append(names, name)
	}

	return nonNil(names)
}

func (g *group) otherNames() []string {
	var names []string
	for name := range g.attrs {
		names = append(names, name)
	}
	for stored := range g.vars {
		if name, ok := backend.StripSequence(stored); ok {
			names = append(names, name)
		}
	}
	for stored := range g.children {
		if name, ok := backend.StripMapping(stored); ok {
			names = append(names, name)
		}
	}

	names = slices.DeleteFunc(names, backend.IsReserved)
	slices.Sort(names)

	return nonNil(names)
}

func nonNil(names []string) []string {
	if names == nil {
		return []string{}
	}

	return names
}

// variable locates the data block of a variable record.
type variable struct {
	dtype       format.DType
	dims        []string
	shape       []int
	compound    bool
	compression format.CompressionType
	// offset is the file offset of the record header.
	offset     int64
	metaLength uint32
	dataLength uint32
	rawLength  uint32
	checksum   uint64
}
