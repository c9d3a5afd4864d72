package conversation

import (
	"strings"

	"github.com/BaSui01/agentsandbox/types"
)

// TerminationWord ends a conversation when a reply finishes with it.
const TerminationWord = "TERMINATE"

const executionTag = "# execution: true"

// ShouldTerminate reports whether msg closes the conversation.
// A reply that still tags code for execution never terminates, even if it also
// ends with TerminationWord, so the results get verified in the next turn.
func ShouldTerminate(msg types.Message) bool {
	if strings.Contains(msg.Content, executionTag) {
		return false
	}
	return msg.Content == "" || strings.HasSuffix(msg.Content, TerminationWord)
}
