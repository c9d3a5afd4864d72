package execution

import (
	"fmt"
	"os/exec"
	"regexp"
	"strings"

	"github.com/BaSui01/agentsandbox/types"
)

var pythonVariants = map[string]struct{}{"python": {}, "py": {}, "python3": {}}

// NormalizeLanguage lowercases the tag and folds aliases.
// On Windows targets the POSIX shells sh and shell run as PowerShell scripts.
func NormalizeLanguage(lang string, platform Platform) Language {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if _, ok := pythonVariants[lang]; ok {
		return LangPython
	}
	if platform == PlatformWindows && (lang == string(LangSh) || lang == string(LangShell)) {
		return LangPS1
	}
	return Language(lang)
}

// FileExtension returns the extension used for content-hashed file names.
func FileExtension(lang Language) string {
	if strings.HasPrefix(string(lang), "python") {
		return "py"
	}
	return string(lang)
}

// PathLookup resolves an executable name, exec.LookPath by default.
type PathLookup func(file string) (string, error)

// Interpreter returns the program that runs files of the given language.
// html and css have no interpreter and can only be saved.
func Interpreter(lang Language, lookPath PathLookup) (string, error) {
	switch lang {
	case LangPython:
		return "python3", nil
	case LangBash, LangSh:
		return string(lang), nil
	case LangShell:
		return "sh", nil
	case LangJavaScript:
		return "node", nil
	case LangPS1, LangPwsh, LangPowerShell:
		return powershellCommand(lookPath), nil
	default:
		return "", types.NewError(types.ErrUnsupportedLanguage,
			fmt.Sprintf("%s not recognized in code execution", lang))
	}
}

// powershellCommand prefers Windows PowerShell and falls back to PowerShell Core.
func powershellCommand(lookPath PathLookup) string {
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	for _, candidate := range []string{"powershell", "pwsh"} {
		if _, err := lookPath(candidate); err == nil {
			return candidate
		}
	}
	return "pwsh"
}

var (
	notebookPipRe = regexp.MustCompile(`^! ?pip install`)
	shellPipRe    = regexp.MustCompile(`^pip install`)
)

// SilencePip adds -qqq to pip install lines so installer progress does not flood the output.
func SilencePip(code string, lang Language) string {
	var re *regexp.Regexp
	switch lang {
	case LangPython:
		re = notebookPipRe
	case LangBash, LangShell, LangSh, LangPwsh, LangPowerShell, LangPS1:
		re = shellPipRe
	default:
		return code
	}

	lines := strings.Split(code, "\n")
	for i, line := range lines {
		match := re.FindString(line)
		if match == "" || strings.Contains(line, "-qqq") {
			continue
		}
		lines[i] = match + " -qqq" + line[len(match):]
	}
	return strings.Join(lines, "\n")
}

// GuardLanguage returns the tag a block is checked under by the code guard,
// along with its normalized language. The guard sees the raw lowercased tag,
// so sh stays sh on Windows, but python aliases collapse to python.
func GuardLanguage(tag string, platform Platform) (string, Language) {
	guard := strings.ToLower(strings.TrimSpace(tag))
	lang := NormalizeLanguage(guard, platform)
	if lang == LangPython {
		guard = string(LangPython)
	}
	return guard, lang
}
