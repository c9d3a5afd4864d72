package guardrails

import "regexp"

// DangerPattern 危险模式：正则与对应的违规原因
type DangerPattern struct {
	Pattern string
	Reason  string
}

// compiledPattern 编译后的危险模式
type compiledPattern struct {
	re     *regexp.Regexp
	reason string
}

// ShellPatterns shell 家族的危险模式注册表。
// 顺序即优先级：多个模式同时命中时，以声明在前者为准。
var ShellPatterns = []DangerPattern{
	{`\brm\s+-rf\b`, "Use of 'rm -rf' command is not allowed."},
	{`\brm\b`, "Deleting files or directories is not allowed."},
	{`\bmv\b.*?/dev/null`, "Moving files to /dev/null is not allowed."},
	{`\bdd\b`, "Use of 'dd' command is not allowed."},
	{`>\s*/dev/sd[a-z][1-9]?`, "Overwriting disk blocks directly is not allowed."},
	{`:\(\)\{.*?\}:`, "Fork bombs are not allowed."},
	{`\bsudo\b`, "Use of 'sudo' command is not allowed."},
	{`\bsu\b`, "Use of 'su' command is not allowed."},
	{`\bchmod\b`, "Changing file permissions is not allowed."},
	{`\bchown\b`, "Changing file ownership is not allowed."},
	{`\bnc\b.*?-e`, "Use of netcat in command execution mode is not allowed."},
	{`\bcurl\b.*?\|\s*bash`, "Piping curl output to bash is not allowed."},
	{`\bwget\b.*?\|\s*bash`, "Piping wget output to bash is not allowed."},
	{`\b(systemctl|service)\s+(start|stop|restart)`, "Starting, stopping, or restarting services is not allowed."},
	{`\bnohup\b`, "Use of 'nohup' command is not allowed."},
	{`&\s*$`, "Running commands in the background is not allowed."},
	{`\bkill\b`, "Use of 'kill' command is not allowed."},
	{`\bpkill\b`, "Use of 'pkill' command is not allowed."},
	{`\b(python|python3|php|node|ruby)\s+-m\s+http\.server`, "Starting an HTTP server is not allowed."},
	{`\biptables\b`, "Modifying firewall rules is not allowed."},
	{`\bufw\b`, "Modifying firewall rules is not allowed."},
	{`\bexport\b`, "Exporting environment variables is not allowed."},
	{`\benv\b`, "Accessing or modifying environment variables is not allowed."},
	{`\becho\b.*?>\s*/etc/`, "Writing to system configuration files is not allowed."},
	{`\bsed\b.*?-i`, "In-place file editing with sed is not allowed."},
	{`\bawk\b.*?-i`, "In-place file editing with awk is not allowed."},
	{`\bcrontab\b`, "Modifying cron jobs is not allowed."},
	{`\bat\b`, "Scheduling tasks with 'at' is not allowed."},
	{`\b(shutdown|reboot|init\s+6|telinit\s+6)\b`, "System shutdown or reboot commands are not allowed."},
	{`\b(apt-get|yum|dnf|pacman)\b`, "Use of package managers is not allowed."},
	{`\$\(.*?\)`, "Command substitution is not allowed."},
	{"`.*?`", "Command substitution is not allowed."},
}

// PythonPatterns python 及其他非 shell 语言的危险模式注册表。
var PythonPatterns = []DangerPattern{
	// 删除文件或目录
	{`\bos\.(remove|unlink|rmdir)\s*\(`, "Deleting files or directories is not allowed."},
	{`\bshutil\.rmtree\s*\(`, "Deleting directory trees is not allowed."},

	// 系统命令与子进程
	{`\bos\.system\s*\(`, "Use of os.system() is not allowed."},
	{`\bsubprocess\.(run|Popen|call|check_output)\s*\(`, "Use of subprocess module is not allowed."},

	// 动态代码
	{`\bexec\s*\(`, "Use of exec() is not allowed."},
	{`\beval\s*\(`, "Use of eval() is not allowed."},
	{`\b__import__\s*\(`, "Use of __import__() is not allowed."},

	// 特定模块
	{`\bimport\s+smtplib\b`, "Importing smtplib (for sending emails) is not allowed."},
	{`\bfrom\s+smtplib\s+import\b`, "Importing from smtplib (for sending emails) is not allowed."},
	{`\bimport\s+ctypes\b`, "Importing ctypes module is not allowed."},
	{`\bfrom\s+ctypes\b`, "Importing ctypes module is not allowed."},
	{`\bctypes\.\w+`, "Use of ctypes module is not allowed."},
	{`\bimport\s+pty\b`, "Importing pty module is not allowed."},
	{`\bpty\.\w+`, "Use of pty module is not allowed."},
	{`\bplatform\.\w+`, "Use of platform module is not allowed."},

	// 退出与进程管理
	{`\bsys\.exit\s*\(`, "Use of sys.exit() is not allowed."},
	{`\bos\.chmod\s*\(`, "Changing file permissions is not allowed."},
	{`\bos\.chown\s*\(`, "Changing file ownership is not allowed."},
	{`\bos\.setuid\s*\(`, "Changing process UID is not allowed."},
	{`\bos\.setgid\s*\(`, "Changing process GID is not allowed."},
	{`\bos\.fork\s*\(`, "Forking processes is not allowed."},

	// 调度、调试与反序列化
	{`\bsched\.\w+`, "Use of sched module (for scheduling) is not allowed."},
	{`\bcommands\.\w+`, "Use of commands module is not allowed."},
	{`\bpdb\.\w+`, "Use of pdb (debugger) is not allowed."},
	{`\bpickle\.loads\s*\(`, "Use of pickle.loads() is not allowed."},
	{`\bmarshall\.loads\s*\(`, "Use of marshall.loads() is not allowed."},

	// HTTP 服务
	{`\bhttp\.server\b`, "Running HTTP servers is not allowed."},
}

// BaseShellPatterns 一级限制使用的精简 shell 规则，直接作用于原始代码。
var BaseShellPatterns = []DangerPattern{
	{`\brm\s+-rf\b`, "Use of 'rm -rf' command is not allowed."},
	{`\bmv\b.*?\s+/dev/null`, "Moving files to /dev/null is not allowed."},
	{`\bdd\b`, "Use of 'dd' command is not allowed."},
	{`>\s*/dev/sd[a-z][1-9]?`, "Overwriting disk blocks directly is not allowed."},
	{`:\(\)\{\s*:\|:&\s*\};:`, "Fork bombs are not allowed."},
}

var (
	compiledShell     = mustCompilePatterns(ShellPatterns, "(?im)")
	compiledPython    = mustCompilePatterns(PythonPatterns, "(?im)")
	compiledBaseShell = mustCompilePatterns(BaseShellPatterns, "")
)

func mustCompilePatterns(patterns []DangerPattern, flags string) []compiledPattern {
	compiled := make([]compiledPattern, 0, len(patterns))
	for _, p := range patterns {
		compiled = append(compiled, compiledPattern{
			re:     regexp.MustCompile(flags + p.Pattern),
			reason: p.Reason,
		})
	}
	return compiled
}

// firstMatch 按声明顺序逐条匹配，返回首个命中模式的原因
func firstMatch(patterns []compiledPattern, code string) (string, bool) {
	for _, p := range patterns {
		if p.re.MatchString(code) {
			return p.reason, true
		}
	}
	return "", false
}
