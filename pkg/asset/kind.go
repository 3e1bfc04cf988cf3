package asset

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Kind identifies the type of a sub-item tracked by an ownership record.
// The set is closed: every Kind has exactly one transfer strategy.
type Kind string

// Sub-item kinds.
const (
	KindVertexGroup    Kind = "GROUP_VERTEX" // Per-vertex weight groups
	KindModifier       Kind = "MODIFIER"     // Ordered modifier stack entries
	KindConstraint     Kind = "CONSTRAINT"   // Ordered constraint stack entries
	KindMaterialSlot   Kind = "MATERIAL"     // All material slots of an item, as one record
	KindShapeKey       Kind = "SHAPE_KEY"    // Shape keys with relative-key links
	KindAttribute      Kind = "ATTRIBUTE"    // Generic geometry attributes
	KindParent         Kind = "PARENT"       // Parent relationship, as one record
	KindCustomProperty Kind = "CUSTOM_PROP"  // Custom properties
)

var allKinds = []Kind{
	KindVertexGroup,
	KindModifier,
	KindConstraint,
	KindMaterialSlot,
	KindShapeKey,
	KindAttribute,
	KindParent,
	KindCustomProperty,
}

// Kinds returns every Kind in its canonical order.
func Kinds() []Kind {
	out := make([]Kind, len(allKinds))
	copy(out, allKinds)
	return out
}

// String returns the string representation of a Kind.
func (k Kind) String() string {
	return string(k)
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	for _, known := range allKinds {
		if k == known {
			return true
		}
	}
	return false
}

// NeedsMesh reports whether the kind only exists on items with mesh data.
func (k Kind) NeedsMesh() bool {
	switch k {
	case KindVertexGroup, KindShapeKey, KindAttribute:
		return true
	default:
		return false
	}
}

// Singleton reports whether an item carries at most one record of this kind.
func (k Kind) Singleton() bool {
	return k == KindMaterialSlot || k == KindParent
}

// Sequence reports whether the order of this kind's entries is significant.
func (k Kind) Sequence() bool {
	return k == KindModifier || k == KindConstraint
}

var displayNames = map[Kind]string{
	KindVertexGroup:    "vertex groups",
	KindModifier:       "modifiers",
	KindConstraint:     "constraints",
	KindMaterialSlot:   "materials",
	KindShapeKey:       "shape keys",
	KindAttribute:      "attributes",
	KindParent:         "parent",
	KindCustomProperty: "custom properties",
}

// DisplayName returns a title-cased label such as "Vertex Groups".
func (k Kind) DisplayName() string {
	name, ok := displayNames[k]
	if !ok {
		name = strings.ReplaceAll(strings.ToLower(string(k)), "_", " ")
	}
	return cases.Title(language.English).String(name)
}

// ParseKind converts a kind key into a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToUpper(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("unknown sub-item kind %q", s)
	}
	return k, nil
}
