package rdf

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/isalabel/pkg/errors"
)

func TestReader(t *testing.T) {
	input := `# schema
<http://ex.org/A> <http://www.w3.org/2000/01/rdf-schema#subClassOf> <http://ex.org/B> .

_:b1 <http://ex.org/name> "say \"hi\"" .
<http://ex.org/A> <http://www.w3.org/2000/01/rdf-schema#label> "Ah"@en-GB .
<http://ex.org/A> <http://ex.org/size> "3"^^<http://www.w3.org/2001/XMLSchema#int> . # trailing
<http://ex.org/C>	<http://ex.org/p>	_:b2 .
`
	got, err := NewReader(strings.NewReader(input)).ReadAll()
	require.NoError(t, err)
	require.Len(t, got, 5)

	assert.Equal(t, T("http://ex.org/A", SubClassOf, "http://ex.org/B"), got[0])
	assert.Equal(t, T("_:b1", "http://ex.org/name", `"say \"hi\""`), got[1])
	assert.Equal(t, `"Ah"@en-GB`, got[2].Object)
	assert.Equal(t, `"3"^^<http://www.w3.org/2001/XMLSchema#int>`, got[3].Object)
	assert.True(t, got[3].IsLiteral())
	assert.Equal(t, "_:b2", got[4].Object)
}

func TestReaderErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"missing dot", "<a:x> <a:p> <a:y>"},
		{"unterminated iri", "<a:x> <a:p> <a:y ."},
		{"literal subject", `"x" <a:p> <a:y> .`},
		{"unterminated literal", `<a:x> <a:p> "abc .`},
		{"two terms", "<a:x> <a:p> ."},
		{"garbage after dot", "<a:x> <a:p> <a:y> . <a:z>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReader(strings.NewReader("\n" + tt.input + "\n"))
			_, err := r.Read()
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrCodeInvalidTriple))
			assert.Contains(t, err.Error(), "line 2")
		})
	}
}

func TestReaderEOF(t *testing.T) {
	r := NewReader(strings.NewReader("# only a comment\n\n"))
	_, err := r.Read()
	assert.Equal(t, io.EOF, err)
}

func TestTripleValidate(t *testing.T) {
	assert.NoError(t, T("http://ex.org/A", SubClassOf, "http://ex.org/B").Validate())
	assert.NoError(t, T("_:b", "http://ex.org/p", `"lit"`).Validate())

	err := T("not a uri", SubClassOf, "http://ex.org/B").Validate()
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidTriple))
	assert.Error(t, T("http://ex.org/A", SubClassOf, "").Validate())
}

func TestTripleString(t *testing.T) {
	assert.Equal(t, `<a:x> <a:p> "v"@en`, T("a:x", "a:p", `"v"@en`).String())
	assert.Equal(t, `_:b <a:p> <a:y>`, T("_:b", "a:p", "a:y").String())
}
