package postprocess

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFillerRules_OrdersContainersFirst(t *testing.T) {
	doc := `
fillers:
  - えー
  - えーと
  - えーと、
  - あのー
  - えー
  - "  "
`
	rules, err := LoadFillerRules(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, FillerRules{"えーと、", "えーと", "えー", "あのー"}, rules)

	out, err := rules.Strip("えーと、あのー、明日です。")
	require.NoError(t, err)
	assert.Equal(t, "明日です。", out)
}

func TestLoadFillerRules_Empty(t *testing.T) {
	rules, err := LoadFillerRules(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, rules)
}

func TestLoadFillerRulesFile(t *testing.T) {
	rules, err := LoadFillerRulesFile("")
	require.NoError(t, err)
	assert.Equal(t, DefaultFillers, rules)

	path := filepath.Join(t.TempDir(), "fillers.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fillers: [\"ほら、\"]\n"), 0o600))
	rules, err = LoadFillerRulesFile(path)
	require.NoError(t, err)
	assert.Equal(t, FillerRules{"ほら、"}, rules)

	_, err = LoadFillerRulesFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDefaultFillersCommaFormsFirst(t *testing.T) {
	for i, f := range DefaultFillers {
		for _, later := range DefaultFillers[i+1:] {
			assert.False(t, strings.Contains(later, f) && later != f, "%q must come before %q", later, f)
		}
	}
}
