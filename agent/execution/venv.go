package execution

import (
	"path/filepath"
	"strings"
)

// pathListSeparator returns the PATH separator of the target platform.
func pathListSeparator(platform Platform) string {
	if platform == PlatformWindows {
		return ";"
	}
	return ":"
}

// withVirtualEnv prepends the venv bin directory to PATH in env.
// The PATH key is matched case-insensitively on Windows.
func withVirtualEnv(env []string, venv *VirtualEnv, platform Platform) []string {
	if venv == nil || venv.BinPath == "" {
		return env
	}
	bin := absPath(venv.BinPath)

	out := make([]string, 0, len(env)+1)
	found := false
	for _, kv := range env {
		key, value, ok := strings.Cut(kv, "=")
		if ok && isPathKey(key, platform) && !found {
			out = append(out, key+"="+bin+pathListSeparator(platform)+value)
			found = true
			continue
		}
		out = append(out, kv)
	}
	if !found {
		out = append(out, "PATH="+bin)
	}
	return out
}

func isPathKey(key string, platform Platform) bool {
	if platform == PlatformWindows {
		return strings.EqualFold(key, "PATH")
	}
	return key == "PATH"
}

// activationScript returns the script chained before commands on Windows.
func activationScript(venv *VirtualEnv) string {
	if venv.ActivationScript != "" {
		return venv.ActivationScript
	}
	return filepath.Join(absPath(venv.BinPath), "activate.bat")
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

// buildCommand assembles the interpreter invocation for a written file.
func buildCommand(program, file string, venv *VirtualEnv, platform Platform) (string, []string) {
	if venv != nil && venv.BinPath != "" && platform == PlatformWindows {
		return activationScript(venv), []string{"&&", program, file}
	}
	return program, []string{file}
}
