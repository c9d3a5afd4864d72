package execution

import "strings"

const (
	executionDirective = "# execution:"
	skipDirective      = "# execution: false"
)

// NoCodeExecutedMessage is returned when blocks were proposed but none carried an execute directive.
const NoCodeExecutedMessage = "Code block present, but no code executed (execution tag was false or not present for all code blocks).  This is expected if you had code blocks but they were not meant for python or shell execution.  For example, you may have shown code for demonstration purposes.  If this is expected, then move on normally without concern."

// pythonHeader keeps plotting and terminal handling non-interactive in headless runs.
const pythonHeader = `import matplotlib
matplotlib.use('Agg')  # Set the backend to non-interactive
import matplotlib.pyplot as plt
plt.ioff()
import os
os.environ['TERM'] = 'dumb'
`

// FilterExecutable drops blocks marked "# execution: false" and then keeps only
// blocks that carry an "# execution:" directive at all. Blocks without a directive
// are dropped silently.
func FilterExecutable(blocks []CodeBlock) []CodeBlock {
	kept := make([]CodeBlock, 0, len(blocks))
	for _, b := range blocks {
		if strings.Contains(b.Code, skipDirective) {
			continue
		}
		if !strings.Contains(b.Code, executionDirective) {
			continue
		}
		kept = append(kept, b)
	}
	return kept
}

func withPythonHeader(code string) string {
	return pythonHeader + code
}
