package execution

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithVirtualEnv(t *testing.T) {
	bin := t.TempDir()
	env := []string{"HOME=/root", "PATH=/usr/bin:/bin"}

	assert.Equal(t, env, withVirtualEnv(env, nil, PlatformPOSIX))
	assert.Equal(t, env, withVirtualEnv(env, &VirtualEnv{}, PlatformPOSIX))

	got := withVirtualEnv(env, &VirtualEnv{BinPath: bin}, PlatformPOSIX)
	assert.Equal(t, []string{"HOME=/root", "PATH=" + bin + ":/usr/bin:/bin"}, got)
	assert.Equal(t, "PATH=/usr/bin:/bin", env[1], "input must not be modified")

	got = withVirtualEnv([]string{"Path=C:\\Windows"}, &VirtualEnv{BinPath: bin}, PlatformWindows)
	assert.Equal(t, []string{"Path=" + bin + ";C:\\Windows"}, got)

	got = withVirtualEnv([]string{"Path=/x"}, &VirtualEnv{BinPath: bin}, PlatformPOSIX)
	assert.Equal(t, []string{"Path=/x", "PATH=" + bin}, got)
}

func TestBuildCommand(t *testing.T) {
	bin := t.TempDir()

	name, args := buildCommand("python3", "/w/a.py", nil, PlatformWindows)
	assert.Equal(t, "python3", name)
	assert.Equal(t, []string{"/w/a.py"}, args)

	name, args = buildCommand("python3", "/w/a.py", &VirtualEnv{BinPath: bin}, PlatformPOSIX)
	assert.Equal(t, "python3", name)
	assert.Equal(t, []string{"/w/a.py"}, args)

	name, args = buildCommand("pwsh", "/w/a.ps1", &VirtualEnv{BinPath: bin}, PlatformWindows)
	assert.Equal(t, filepath.Join(bin, "activate.bat"), name)
	assert.Equal(t, []string{"&&", "pwsh", "/w/a.ps1"}, args)

	name, _ = buildCommand("pwsh", "/w/a.ps1", &VirtualEnv{BinPath: bin, ActivationScript: "C:\\venv\\act.bat"}, PlatformWindows)
	assert.Equal(t, "C:\\venv\\act.bat", name)
}
