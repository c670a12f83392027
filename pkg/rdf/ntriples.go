package rdf

import (
	"bufio"
	"io"
	"strings"

	"github.com/matzehuels/isalabel/pkg/errors"
)

const maxLineSize = 1 << 20

// Reader reads triples from N-Triples input, one statement per line.
// Comments and blank lines are skipped. IRIs are returned without angle
// brackets, blank nodes and literals verbatim.
type Reader struct {
	sc   *bufio.Scanner
	line int
}

// NewReader returns a reader over r.
func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &Reader{sc: sc}
}

// Read returns the next triple, or io.EOF at the end of input.
func (r *Reader) Read() (Triple, error) {
	for r.sc.Scan() {
		r.line++
		line := strings.TrimSpace(r.sc.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		t, err := parseLine(line)
		if err != nil {
			return Triple{}, errors.Wrap(errors.ErrCodeInvalidTriple, err, "line %d", r.line)
		}
		return t, nil
	}
	if err := r.sc.Err(); err != nil {
		return Triple{}, err
	}
	return Triple{}, io.EOF
}

// ReadAll reads the remaining triples.
func (r *Reader) ReadAll() ([]Triple, error) {
	var out []Triple
	for {
		t, err := r.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, t)
	}
}

func parseLine(line string) (Triple, error) {
	var terms [3]string
	rest := line
	for i := range terms {
		rest = strings.TrimLeft(rest, " \t")
		term, tail, err := parseTerm(rest, i == 2)
		if err != nil {
			return Triple{}, err
		}
		terms[i], rest = term, tail
	}
	rest = strings.TrimSpace(rest)
	if !strings.HasPrefix(rest, ".") {
		return Triple{}, errors.New(errors.ErrCodeInvalidTriple, "missing final '.'")
	}
	if tail := strings.TrimSpace(rest[1:]); tail != "" && tail[0] != '#' {
		return Triple{}, errors.New(errors.ErrCodeInvalidTriple, "unexpected %q after '.'", tail)
	}
	return T(terms[0], terms[1], terms[2]), nil
}

// parseTerm splits one term off the front of s.
func parseTerm(s string, allowLiteral bool) (term, rest string, err error) {
	switch {
	case strings.HasPrefix(s, "<"):
		end := strings.IndexByte(s, '>')
		if end < 0 {
			return "", "", errors.New(errors.ErrCodeInvalidTriple, "unterminated IRI")
		}
		return s[1:end], s[end+1:], nil
	case strings.HasPrefix(s, "_:"):
		end := strings.IndexAny(s, " \t")
		if end < 0 {
			return "", "", errors.New(errors.ErrCodeInvalidTriple, "blank node without following term")
		}
		return s[:end], s[end:], nil
	case strings.HasPrefix(s, `"`) && allowLiteral:
		return parseLiteral(s)
	case s == "":
		return "", "", errors.New(errors.ErrCodeInvalidTriple, "missing term")
	}
	return "", "", errors.New(errors.ErrCodeInvalidTriple, "unexpected term %q", s)
}

// parseLiteral consumes a quoted string with its optional language tag or
// datatype IRI.
func parseLiteral(s string) (term, rest string, err error) {
	i := 1
	for ; i < len(s); i++ {
		if s[i] == '\\' {
			i++
			continue
		}
		if s[i] == '"' {
			break
		}
	}
	if i >= len(s) {
		return "", "", errors.New(errors.ErrCodeInvalidTriple, "unterminated literal")
	}
	end := i + 1
	switch {
	case strings.HasPrefix(s[end:], "@"):
		for end < len(s) && s[end] != ' ' && s[end] != '\t' && s[end] != '.' {
			end++
		}
	case strings.HasPrefix(s[end:], "^^<"):
		gt := strings.IndexByte(s[end:], '>')
		if gt < 0 {
			return "", "", errors.New(errors.ErrCodeInvalidTriple, "unterminated datatype IRI")
		}
		end += gt + 1
	}
	return s[:end], s[end:], nil
}
