package execution

import (
	"regexp"
	"strings"
)

var codeFenceRe = regexp.MustCompile("(?s)```[ \\t]*(\\w+)?[ \\t]*\\r?\\n(.*?)\\r?\\n[ \\t]*```")

// ExtractCodeBlocks returns the fenced code blocks of a markdown message in order.
// Untagged blocks are guessed: installer or interpreter invocations are sh, anything else python.
func ExtractCodeBlocks(markdown string) []CodeBlock {
	matches := codeFenceRe.FindAllStringSubmatch(markdown, -1)
	blocks := make([]CodeBlock, 0, len(matches))
	for _, m := range matches {
		lang, code := m[1], m[2]
		if lang == "" {
			lang = string(inferLanguage(code))
		}
		blocks = append(blocks, CodeBlock{Language: Language(lang), Code: code})
	}
	return blocks
}

func inferLanguage(code string) Language {
	for _, prefix := range []string{"python ", "python3 ", "pip"} {
		if strings.HasPrefix(code, prefix) {
			return LangSh
		}
	}
	return LangPython
}
