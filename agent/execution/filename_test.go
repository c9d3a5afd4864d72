package execution

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilenameDirective(t *testing.T) {
	tests := []struct {
		name   string
		code   string
		want   string
		wantOK bool
	}{
		{"first line", "# filename: app.py\nprint(1)", "app.py", true},
		{"after execution tag", "# execution: true\n# filename: src/main.sh\necho", "src/main.sh", true},
		{"slash comment", "// filename: index.js\nconsole.log(1)", "index.js", true},
		{"no space", "#filename:x.py", "x.py", true},
		{"stops at code", "print(1)\n# filename: late.py", "", false},
		{"none", "# just a comment\nprint(1)", "", false},
		{"empty", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := filenameDirective(tt.code)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveInWorkDir(t *testing.T) {
	workDir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	path, err := resolveInWorkDir(workDir, "a/b.py")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(workDir, "a", "b.py"), path)

	path, err = resolveInWorkDir(workDir, filepath.Join(workDir, "abs.py"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(workDir, "abs.py"), path)

	path, err = resolveInWorkDir(workDir, "a/../c.py")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(workDir, "c.py"), path)

	for _, name := range []string{"../x.py", "a/../../x.py", "/etc/passwd", ".", ".."} {
		_, err := resolveInWorkDir(workDir, name)
		assert.ErrorIs(t, err, ErrFilenameOutsideWorkDir, name)
	}
}

func TestResolveInWorkDir_Symlink(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	workDir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	outside := t.TempDir()
	require.NoError(t, os.Symlink(outside, filepath.Join(workDir, "link")))

	for _, name := range []string{"link/x.py", "link/sub/x.py", "link/a/b/c/x.py"} {
		_, err = resolveInWorkDir(workDir, name)
		assert.ErrorIs(t, err, ErrFilenameOutsideWorkDir, name)
	}

	// a dangling link is still followed
	require.NoError(t, os.Symlink(filepath.Join(outside, "gone"), filepath.Join(workDir, "dangling")))
	_, err = resolveInWorkDir(workDir, "dangling/x.py")
	assert.ErrorIs(t, err, ErrFilenameOutsideWorkDir)

	// a link that stays inside is fine, including missing subdirectories
	require.NoError(t, os.Mkdir(filepath.Join(workDir, "real"), 0o755))
	require.NoError(t, os.Symlink(filepath.Join(workDir, "real"), filepath.Join(workDir, "inner")))
	path, err := resolveInWorkDir(workDir, "inner/new/dir/x.py")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(workDir, "inner", "new", "dir", "x.py"), path)
}

func TestHashedFilename(t *testing.T) {
	name := hashedFilename("print(1)", LangPython)
	assert.True(t, strings.HasPrefix(name, "tmp_code_"))
	assert.True(t, strings.HasSuffix(name, ".py"))
	assert.Len(t, name, len("tmp_code_")+32+len(".py"))
	assert.Equal(t, name, hashedFilename("print(1)", LangPython))
	assert.NotEqual(t, name, hashedFilename("print(2)", LangPython))
	assert.True(t, strings.HasSuffix(hashedFilename("ls", LangBash), ".bash"))
}

func TestFilterExecutable(t *testing.T) {
	blocks := []CodeBlock{
		{Language: LangPython, Code: "# execution: true\nprint(1)"},
		{Language: LangPython, Code: "# execution: false\nprint(2)"},
		{Language: LangPython, Code: "print(3)"},
		{Language: LangBash, Code: "echo 4 # execution: true"},
	}
	got := FilterExecutable(blocks)
	require.Len(t, got, 2)
	assert.Equal(t, blocks[0], got[0])
	assert.Equal(t, blocks[3], got[1])
	assert.Empty(t, FilterExecutable(nil))
}
