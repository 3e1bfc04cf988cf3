package naming

import (
	"slices"
	"strings"

	"github.com/agentstation/assetpipe/pkg/asset"
	"github.com/agentstation/assetpipe/pkg/constants"
)

// Prefixes maps task layer keys to their short name prefix, for example
// "rigging" -> "RIG".
type Prefixes map[string]string

// sorted returns the prefixes longest first so "RIGX" wins over "RIG".
func (p Prefixes) sorted() []string {
	out := make([]string, 0, len(p))
	for _, prefix := range p {
		if prefix != "" {
			out = append(out, prefix)
		}
	}
	slices.SortFunc(out, func(a, b string) int {
		if len(a) != len(b) {
			return len(b) - len(a)
		}
		return strings.Compare(a, b)
	})
	return out
}

func (p Prefixes) match(name string) (string, bool) {
	for _, prefix := range p.sorted() {
		if strings.HasPrefix(name, prefix+constants.NameDelimiter) {
			return prefix, true
		}
	}
	return "", false
}

// TaskLayerPrefixName returns name prefixed with the owner's short name.
// Names that already start with any known prefix are returned unchanged.
func TaskLayerPrefixName(name, owner string, prefixes Prefixes) string {
	if _, ok := prefixes.match(name); ok {
		return name
	}
	prefix, ok := prefixes[owner]
	if !ok || prefix == "" {
		return name
	}
	return prefix + constants.NameDelimiter + name
}

// TaskLayerPrefixBasename strips a known task layer prefix from name.
func TaskLayerPrefixBasename(name string, prefixes Prefixes) string {
	if prefix, ok := prefixes.match(name); ok {
		return strings.TrimPrefix(name, prefix+constants.NameDelimiter)
	}
	return name
}

// UpdateTaskLayerPrefix renames modifier and constraint records, and the
// entries they track, so their prefix matches their current owner. Driver
// paths pointing at a renamed entry follow it. It returns the number of
// renamed records.
func UpdateTaskLayerPrefix(item *asset.Item, prefixes Prefixes) int {
	renamed := 0
	for idx := range item.Records {
		rec := &item.Records[idx]
		if !rec.Kind.Sequence() {
			continue
		}
		prefix, ok := prefixes[rec.Owner]
		if !ok || prefix == "" {
			continue
		}
		newName := prefix + constants.NameDelimiter + TaskLayerPrefixBasename(rec.Name, prefixes)
		if newName == rec.Name || item.Record(rec.Kind, newName) != nil {
			continue
		}
		if !renameEntry(item, rec.Kind, rec.Name, newName) {
			continue
		}
		rec.Name = newName
		renamed++
	}
	return renamed
}

func renameEntry(item *asset.Item, kind asset.Kind, from, to string) bool {
	var collection string
	switch kind {
	case asset.KindModifier:
		idx := item.ModifierIndex(from)
		if idx < 0 || item.ModifierIndex(to) >= 0 {
			return false
		}
		item.Modifiers[idx].Name = to
		collection = "modifiers"
	case asset.KindConstraint:
		idx := item.ConstraintIndex(from)
		if idx < 0 || item.ConstraintIndex(to) >= 0 {
			return false
		}
		item.Constraints[idx].Name = to
		collection = "constraints"
	default:
		return false
	}
	for i := range item.Drivers {
		item.Drivers[i].Path = strings.Replace(item.Drivers[i].Path,
			DriverPath(collection, from), DriverPath(collection, to), 1)
	}
	return true
}

// DriverPath returns the path prefix drivers use for a stack entry, such
// as `modifiers["RIG-Armature"]`.
func DriverPath(collection, entry string) string {
	return collection + `["` + entry + `"]`
}
