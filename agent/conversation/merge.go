package conversation

import "github.com/BaSui01/agentsandbox/types"

// MergeMessages merges two views of the same group chat, keyed on content.
//
// The result keeps b's order. Each message of a whose content is not yet present
// is inserted right after the first message carrying the content of its
// predecessor in a; the first message of a goes to the front. When the
// predecessor cannot be found the message is appended. Neither input is modified.
func MergeMessages(a, b []types.Message) []types.Message {
	merged := make([]types.Message, len(b), len(a)+len(b))
	copy(merged, b)

	seen := make(map[string]struct{}, len(a)+len(b))
	for _, msg := range b {
		seen[msg.Content] = struct{}{}
	}

	for i, msg := range a {
		if _, ok := seen[msg.Content]; ok {
			continue
		}
		seen[msg.Content] = struct{}{}

		if i == 0 {
			merged = insertAt(merged, 0, msg)
			continue
		}

		pos := len(merged)
		prev := a[i-1].Content
		for j, existing := range merged {
			if existing.Content == prev {
				pos = j + 1
				break
			}
		}
		merged = insertAt(merged, pos, msg)
	}
	return merged
}

func insertAt(list []types.Message, pos int, msg types.Message) []types.Message {
	list = append(list, types.Message{})
	copy(list[pos+1:], list[pos:])
	list[pos] = msg
	return list
}
