package hierarchy

import (
	"fmt"
	"strings"
)

// Kind identifies one of the four hierarchies of a schema.
type Kind int

const (
	// KindClass is the rdfs:subClassOf hierarchy of classes.
	KindClass Kind = iota
	// KindProperty is the rdfs:subPropertyOf hierarchy of properties.
	KindProperty
	// KindMetaclass is the hierarchy of classes whose instances are classes.
	KindMetaclass
	// KindMetaproperty is the hierarchy of classes whose instances are properties.
	KindMetaproperty
)

// Kinds lists all hierarchy kinds in persistence order.
var Kinds = []Kind{KindMetaclass, KindMetaproperty, KindClass, KindProperty}

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindClass:
		return "class"
	case KindProperty:
		return "property"
	case KindMetaclass:
		return "metaclass"
	case KindMetaproperty:
		return "metaproperty"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind parses the name returned by [Kind.String].
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if strings.EqualFold(s, k.String()) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown hierarchy kind %q", s)
}
