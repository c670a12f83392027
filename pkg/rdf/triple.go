package rdf

import (
	"fmt"
	"strings"

	"github.com/matzehuels/isalabel/pkg/errors"
)

// Triple is one RDF statement. Subject and Predicate are IRIs or blank node
// labels; Object may also be a literal in N-Triples syntax.
type Triple struct {
	Subject   string `json:"s"`
	Predicate string `json:"p"`
	Object    string `json:"o"`
}

// T is shorthand for a Triple literal.
func T(s, p, o string) Triple { return Triple{Subject: s, Predicate: p, Object: o} }

// IsLiteral reports whether the object is a literal.
func (t Triple) IsLiteral() bool { return strings.HasPrefix(t.Object, `"`) }

// Validate checks that subject and predicate are resources and the object
// is a resource or a literal.
func (t Triple) Validate() error {
	for _, term := range []string{t.Subject, t.Predicate} {
		if err := validateResource(term); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidTriple, err, "invalid triple %s", t)
		}
	}
	if t.IsLiteral() {
		return nil
	}
	if err := validateResource(t.Object); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidTriple, err, "invalid triple %s", t)
	}
	return nil
}

func validateResource(term string) error {
	if strings.HasPrefix(term, "_:") && len(term) > 2 {
		return nil
	}
	return errors.ValidateURI(term)
}

// String formats the triple as an N-Triples line without the final dot.
func (t Triple) String() string {
	return fmt.Sprintf("%s %s %s", formatTerm(t.Subject), formatTerm(t.Predicate), formatTerm(t.Object))
}

func formatTerm(term string) string {
	if strings.HasPrefix(term, `"`) || strings.HasPrefix(term, "_:") {
		return term
	}
	return "<" + term + ">"
}
