package rdf

import "strings"

// Namespaces
const (
	RDFNamespace  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	RDFSNamespace = "http://www.w3.org/2000/01/rdf-schema#"
)

// RDF and RDF Schema IRIs the builder interprets.
const (
	// Type relates a resource to a class it is an instance of.
	Type = RDFNamespace + "type"
	// Property is the class of all properties and the metaproperty root.
	Property = RDFNamespace + "Property"

	// Resource is the class of everything and the class root.
	Resource = RDFSNamespace + "Resource"
	// Class is the class of all classes and the metaclass root.
	Class = RDFSNamespace + "Class"
	// SubClassOf is the is-a relation between classes.
	SubClassOf = RDFSNamespace + "subClassOf"
	// SubPropertyOf is the is-a relation between properties.
	SubPropertyOf = RDFSNamespace + "subPropertyOf"
	// Literal is the class of literal values.
	Literal = RDFSNamespace + "Literal"
	// Datatype is the class of datatypes.
	Datatype = RDFSNamespace + "Datatype"
)

// TopProperty is the synthetic root of the property hierarchy. RDFS has no
// universal property.
const TopProperty = "urn:isalabel:topProperty"

// IsVocabulary reports whether iri belongs to the RDF or RDFS namespace.
func IsVocabulary(iri string) bool {
	return strings.HasPrefix(iri, RDFNamespace) || strings.HasPrefix(iri, RDFSNamespace)
}
