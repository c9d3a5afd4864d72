package execution

import (
	"runtime"
	"time"

	"github.com/BaSui01/agentsandbox/agent/guardrails"
)

// Language is the tag attached to a fenced code block.
type Language string

const (
	LangPython     Language = "python"
	LangBash       Language = "bash"
	LangShell      Language = "shell"
	LangSh         Language = "sh"
	LangPwsh       Language = "pwsh"
	LangPowerShell Language = "powershell"
	LangPS1        Language = "ps1"
	LangJavaScript Language = "javascript"
	LangHTML       Language = "html"
	LangCSS        Language = "css"
)

// SupportedLanguages lists every tag the executor accepts after alias normalization.
var SupportedLanguages = []Language{
	LangBash, LangShell, LangSh, LangPwsh, LangPowerShell, LangPS1,
	LangPython, LangJavaScript, LangHTML, LangCSS,
}

// IsSupported reports whether lang is one of SupportedLanguages.
func IsSupported(lang Language) bool {
	for _, l := range SupportedLanguages {
		if l == lang {
			return true
		}
	}
	return false
}

// CodeBlock is a single snippet proposed by an agent.
type CodeBlock struct {
	Language Language `json:"language"`
	Code     string   `json:"code"`
}

// Exit codes reported in Result.ExitCode.
const (
	ExitNotExecuted = -2
	ExitSuccess     = 0
	ExitFailure     = 1
	ExitTimeout     = 124
)

// TimeoutMessage is appended to the output when a block exceeds its budget.
const TimeoutMessage = "Timeout"

// Result is the outcome of one batch of code blocks.
type Result struct {
	ExitCode int    `json:"exit_code"`
	Output   string `json:"output"`
	// CodeFile is the first file written in the batch, empty if none.
	CodeFile string `json:"code_file,omitempty"`
}

// ExecutionPolicy maps a language to whether it may run or is only saved to disk.
// Languages missing from the map are saved only.
type ExecutionPolicy map[Language]bool

// DefaultExecutionPolicy returns the policy used when none is configured.
func DefaultExecutionPolicy() ExecutionPolicy {
	return ExecutionPolicy{
		LangBash:       true,
		LangShell:      true,
		LangSh:         true,
		LangPwsh:       true,
		LangPowerShell: true,
		LangPS1:        true,
		LangPython:     true,
		LangJavaScript: false,
		LangHTML:       false,
		LangCSS:        false,
	}
}

// Allows reports whether lang is executed rather than saved.
func (p ExecutionPolicy) Allows(lang Language) bool {
	return p[lang]
}

// Platform selects target-specific behavior such as the shell mapping and venv activation.
type Platform string

const (
	PlatformPOSIX   Platform = "posix"
	PlatformWindows Platform = "windows"
)

// CurrentPlatform returns the platform of the running process.
func CurrentPlatform() Platform {
	if runtime.GOOS == "windows" {
		return PlatformWindows
	}
	return PlatformPOSIX
}

// VirtualEnv describes an already provisioned virtual environment.
type VirtualEnv struct {
	// BinPath is the directory holding the environment's executables.
	BinPath string `json:"bin_path" yaml:"bin_path"`
	// ActivationScript is chained before the command on Windows.
	// Defaults to BinPath/activate.bat.
	ActivationScript string `json:"activation_script,omitempty" yaml:"activation_script"`
}

// ExecutorConfig configures a LocalExecutor.
type ExecutorConfig struct {
	WorkDir          string                      `json:"work_dir"`
	Timeout          time.Duration               `json:"timeout"`
	Policies         ExecutionPolicy             `json:"policies,omitempty"`
	RestrictionLevel guardrails.RestrictionLevel `json:"restriction_level"`
	StreamOutput     bool                        `json:"stream_output"`
	VirtualEnv       *VirtualEnv                 `json:"virtual_env,omitempty"`
	OutputLimits     OutputLimits                `json:"output_limits"`
}

// DefaultExecutorConfig returns secure defaults.
func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{
		WorkDir:          "coding",
		Timeout:          60 * time.Second,
		Policies:         DefaultExecutionPolicy(),
		RestrictionLevel: guardrails.RestrictionFull,
		OutputLimits:     DefaultOutputLimits(),
	}
}
