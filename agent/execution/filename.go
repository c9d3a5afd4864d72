package execution

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BaSui01/agentsandbox/types"
)

// FilenameOutsideMessage is the whole batch output when a directive escapes the work dir.
const FilenameOutsideMessage = "Filename is not in the workspace"

// ErrFilenameOutsideWorkDir is returned for directives that resolve outside the work dir.
var ErrFilenameOutsideWorkDir = types.NewError(types.ErrFilenameOutsideWorkDir, FilenameOutsideMessage)

var filenameDirectiveRe = regexp.MustCompile(`^(?:#|//)\s*filename:\s*(.+?)\s*$`)

// filenameDirective returns the target of a "# filename:" or "// filename:" comment.
// Only the leading run of comment lines is searched.
func filenameDirective(code string) (string, bool) {
	for _, line := range strings.Split(code, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "#") && !strings.HasPrefix(line, "//") {
			return "", false
		}
		if m := filenameDirectiveRe.FindStringSubmatch(line); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// resolveInWorkDir joins name onto workDir and rejects anything that lands outside it.
// workDir must already be absolute and symlink-resolved.
func resolveInWorkDir(workDir, name string) (string, error) {
	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(workDir, path)
	}
	path = filepath.Clean(path)
	if !within(workDir, path) {
		return "", ErrFilenameOutsideWorkDir
	}
	// A symlink anywhere along the existing prefix can still point outside.
	resolved, err := resolveExisting(path)
	if err != nil || !within(workDir, resolved) {
		return "", ErrFilenameOutsideWorkDir
	}
	return path, nil
}

// maxLinkHops bounds link chains that EvalSymlinks cannot follow itself.
const maxLinkHops = 40

// resolveExisting resolves symlinks in the longest existing ancestor of path and
// re-appends the components that do not exist yet. A dangling link is followed
// to its target.
func resolveExisting(path string) (string, error) {
	for hops := 0; hops < maxLinkHops; hops++ {
		var missing []string
		cur := path
		for {
			resolved, err := filepath.EvalSymlinks(cur)
			if err == nil {
				return joinMissing(resolved, missing), nil
			}
			if !errors.Is(err, fs.ErrNotExist) {
				return "", err
			}
			if info, lerr := os.Lstat(cur); lerr == nil && info.Mode()&fs.ModeSymlink != 0 {
				target, rerr := os.Readlink(cur)
				if rerr != nil {
					return "", rerr
				}
				if !filepath.IsAbs(target) {
					target = filepath.Join(filepath.Dir(cur), target)
				}
				path = joinMissing(filepath.Clean(target), missing)
				break
			}
			parent := filepath.Dir(cur)
			if parent == cur {
				return "", err
			}
			missing = append(missing, filepath.Base(cur))
			cur = parent
		}
	}
	return "", fmt.Errorf("resolve %s: too many links", path)
}

func joinMissing(base string, missing []string) string {
	for i := len(missing) - 1; i >= 0; i-- {
		base = filepath.Join(base, missing[i])
	}
	return base
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// hashedFilename names a file after the MD5 digest of its content.
func hashedFilename(code string, lang Language) string {
	sum := md5.Sum([]byte(code))
	return fmt.Sprintf("tmp_code_%s.%s", hex.EncodeToString(sum[:]), FileExtension(lang))
}
