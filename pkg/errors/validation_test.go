package errors

import (
	"strings"
	"testing"
)

func TestValidateURI(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid http", "http://example.org/onto#Person", false},
		{"valid urn", "urn:isbn:0451450523", false},
		{"valid rdfs", "http://www.w3.org/2000/01/rdf-schema#Resource", false},

		{"empty", "", true},
		{"too long", "http://x/" + strings.Repeat("a", 2100), true},
		{"no scheme", "Person", true},
		{"space", "http://example.org/a b", true},
		{"newline", "http://example.org/a\nb", true},
		{"angle bracket", "http://example.org/<a>", true},
		{"quote", "http://example.org/\"a\"", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURI(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURI(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateSlack(t *testing.T) {
	tests := []struct {
		input   float64
		wantErr bool
	}{
		{1, false},
		{1.5, false},
		{2, false},
		{0.99, true},
		{2.01, true},
		{0, true},
	}

	for _, tt := range tests {
		err := ValidateSlack(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateSlack(%g) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
		if err != nil && !Is(err, ErrCodeInvalidInput) {
			t.Errorf("ValidateSlack(%g) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidInput)
		}
	}
}
