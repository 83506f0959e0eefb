package dialog

import "strings"

// FallbackReply is returned when the transcript holds no usable assistant text.
const FallbackReply = "Hmm, I couldn't find a good answer for that."

// ExtractReply returns the text of the first assistant entry in t. Only that
// entry is considered; its first non-blank text or refusal block wins. ok is false when no
// assistant entry exists or it carries no text, in which case FallbackReply is
// returned.
func ExtractReply(t Transcript) (reply string, ok bool) {
	for _, entry := range t {
		if entry.Role != RoleAssistant {
			continue
		}
		if text := firstText(entry.Content); text != "" {
			return text, true
		}
		return FallbackReply, false
	}
	return FallbackReply, false
}

func firstText(blocks []ContentBlock) string {
	for _, b := range blocks {
		if b.Type != BlockText && b.Type != BlockRefusal {
			continue
		}
		if strings.TrimSpace(b.Text) != "" {
			return b.Text
		}
	}
	return ""
}
