package guardrails

import (
	"regexp"
	"strings"
)

// 剥离器使用的正则。均为启发式规则，不理解嵌套引号、转义引号，
// 也不识别字符串中的 '#'。
var (
	lineCommentRe     = regexp.MustCompile(`(?m)#.*$`)
	tripleDoubleRe    = regexp.MustCompile(`"{3}[\s\S]*?"{3}`)
	tripleSingleRe    = regexp.MustCompile(`'{3}[\s\S]*?'{3}`)
	doubleQuotedRe    = regexp.MustCompile(`"[^"]*"`)
	singleQuotedRe    = regexp.MustCompile(`'[^']*'`)
	shellLanguageTags = map[string]struct{}{"bash": {}, "shell": {}, "sh": {}}
)

// IsShellLanguage 判断语言标签是否属于 shell 家族
func IsShellLanguage(lang string) bool {
	_, ok := shellLanguageTags[lang]
	return ok
}

// StripCommentsAndStrings 移除注释与字符串字面量，返回仅供模式匹配使用的"语义"代码。
// 实际执行的仍是原始代码。
//
// shell 家族：移除 '#' 到行尾的注释，再移除单/双引号字面量。
// python：先移除注释，再移除三引号块，最后移除单行引号字面量。
// 其他语言原样返回（仅去除首尾空白）。
func StripCommentsAndStrings(code, lang string) string {
	switch {
	case IsShellLanguage(lang):
		code = lineCommentRe.ReplaceAllString(code, "")
		code = doubleQuotedRe.ReplaceAllString(code, "")
		code = singleQuotedRe.ReplaceAllString(code, "")
	case lang == "python":
		code = lineCommentRe.ReplaceAllString(code, "")
		code = tripleDoubleRe.ReplaceAllString(code, "")
		code = tripleSingleRe.ReplaceAllString(code, "")
		code = doubleQuotedRe.ReplaceAllString(code, "")
		code = singleQuotedRe.ReplaceAllString(code, "")
	}
	return strings.TrimSpace(code)
}
