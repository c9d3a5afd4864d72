package execution

import "unicode/utf8"

// TruncationMarker joins the kept head and tail of truncated output.
const TruncationMarker = "\n\n...\n\n"

// OutputLimits caps the output returned to the conversation, in bytes.
type OutputLimits struct {
	// FailureCap applies when the exit code is 1.
	FailureCap int `json:"failure_cap" yaml:"failure_cap"`
	// SuccessCap applies to every other exit code.
	SuccessCap int `json:"success_cap" yaml:"success_cap"`
}

// DefaultOutputLimits returns 2048 bytes for failures and 10000 otherwise.
func DefaultOutputLimits() OutputLimits {
	return OutputLimits{FailureCap: 2048, SuccessCap: 10000}
}

func (l OutputLimits) capFor(exitCode int) int {
	if exitCode == ExitFailure {
		return l.FailureCap
	}
	return l.SuccessCap
}

// Truncate bounds res.Output to the cap for its exit code, keeping the first half
// of the cap and the tail of the rest. Output at or under the cap is left alone.
// A cap too small for the marker cuts the output without one.
// It reports whether the output was shortened.
func Truncate(res *Result, limits OutputLimits) bool {
	if res == nil {
		return false
	}
	limit := limits.capFor(res.ExitCode)
	if limit <= 0 || len(res.Output) <= limit {
		return false
	}

	if limit <= len(TruncationMarker) {
		res.Output = res.Output[:runeStart(res.Output, limit)]
		return true
	}

	headLen := min(limit/2, limit-len(TruncationMarker))
	tailLen := limit - headLen - len(TruncationMarker)

	head := res.Output[:runeStart(res.Output, headLen)]
	tail := ""
	if tailLen > 0 {
		rest := res.Output[len(head):]
		from := len(rest) - tailLen
		if from < 0 {
			from = 0
		}
		tail = rest[runeEnd(rest, from):]
	}
	res.Output = head + TruncationMarker + tail
	return true
}

// runeStart moves i back to the start of the rune containing it.
func runeStart(s string, i int) int {
	for i > 0 && i < len(s) && !utf8.RuneStart(s[i]) {
		i--
	}
	return i
}

// runeEnd moves i forward past a partial rune.
func runeEnd(s string, i int) int {
	for i < len(s) && !utf8.RuneStart(s[i]) {
		i++
	}
	return i
}
