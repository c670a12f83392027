package buildinfo

import (
	"strings"
	"testing"
)

func TestTemplate(t *testing.T) {
	old := Commit
	t.Cleanup(func() { Commit = old })

	Commit = "0123456789abcdef0123"
	tpl := Template()
	if !strings.Contains(tpl, "commit 0123456789ab,") {
		t.Errorf("Template() = %q, want a shortened commit", tpl)
	}
	if !strings.HasPrefix(tpl, "{{.Name}} ") {
		t.Errorf("Template() = %q, want the cobra name placeholder", tpl)
	}
}
