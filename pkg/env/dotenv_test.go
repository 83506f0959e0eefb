package env

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromDir(t *testing.T) {
	dir := t.TempDir()
	content := "OPENAI_API_KEY=sk-test\n# comment\nexport ASSISTANT_ID=\"asst_123\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0o644))
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ASSISTANT_ID", "")
	_ = os.Unsetenv("OPENAI_API_KEY")
	_ = os.Unsetenv("ASSISTANT_ID")

	set, err := LoadFromDir(dir)
	require.NoError(t, err)
	assert.Len(t, set, 2)
	assert.Equal(t, "sk-test", os.Getenv("OPENAI_API_KEY"))
	assert.Equal(t, "asst_123", os.Getenv("ASSISTANT_ID"))
}

func TestLoadDoesNotOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("PORT=8080\n"), 0o644))
	t.Setenv("PORT", "3000")

	set, err := Load(path)
	require.NoError(t, err)
	assert.Empty(t, set)
	assert.Equal(t, "3000", os.Getenv("PORT"))
}

func TestLoadMissingFile(t *testing.T) {
	set, err := Load(filepath.Join(t.TempDir(), ".env"))
	require.NoError(t, err)
	assert.Nil(t, set)
}

func TestParseValues(t *testing.T) {
	in := strings.Join([]string{
		"PLAIN=value # trailing comment",
		"SINGLE='keep # this'",
		`DOUBLE="line1\nline2"`,
		"EMPTY=",
		"no equals sign",
		"=novalue",
	}, "\n")
	vars, err := Parse(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, [][2]string{
		{"PLAIN", "value"},
		{"SINGLE", "keep # this"},
		{"DOUBLE", "line1\nline2"},
		{"EMPTY", ""},
	}, vars)
}
