package contextassembly

import (
	"fmt"
	"strings"

	"github.com/suPer8Hu/chat-gateway/internal/vectorstore"
)

// ChatPersona names the assistant persona pinned for the chat system
// prompt, per spec.md §4.I.
const ChatPersona = "ميجو"

const chatSystemPrompt = "You are " + ChatPersona + ", a warm, concise assistant embedded in a group chat. " +
	"Answer using only the context provided. If the context is insufficient, say so plainly rather than guessing."

const replySystemPrompt = "Respond as the user, not as an assistant. Draft a short, natural reply in their voice to the message below."

const outputSpec = `Respond with JSON only, no prose, no code fences, matching exactly:
{"answer": "...", "suggested_answer": "..."}`

// BuildChatPrompt composes the deterministic chat-turn prompt: Context,
// then Task, then Instructions, then the JSON output spec, per spec.md
// §4.I. Section order, headings, and formatting are fixed so behavioural
// tests can match against them.
func BuildChatPrompt(c *Context, question string) (systemPrompt, userPrompt string) {
	var b strings.Builder

	b.WriteString("## Context\n")
	writeContextSections(&b, c, nil)

	b.WriteString("\n## Task\n")
	fmt.Fprintf(&b, "The user asks: %s\n", question)

	b.WriteString("\n## Instructions\n")
	if hasNoContext(c) {
		b.WriteString("No prior context is available for this room or user. Answer the question directly and briefly.\n")
	} else {
		b.WriteString("Use the room summary, user profile, prior AI chats, and recent messages above to ground your answer. Be concise.\n")
	}

	b.WriteString("\n## Output\n")
	b.WriteString(outputSpec)

	return chatSystemPrompt, b.String()
}

// BuildReplyPrompt composes the deterministic reply-turn prompt, with the
// target message starred in the Context section, per spec.md §4.I.
func BuildReplyPrompt(c *Context) (systemPrompt, userPrompt string) {
	var b strings.Builder

	b.WriteString("## Context\n")
	writeContextSections(&b, c, c.TargetMessage)

	b.WriteString("\n## Task\n")
	if c.TargetMessage != nil {
		fmt.Fprintf(&b, "Draft a reply to this message:\n* %s: %s\n", nonEmpty(c.TargetMessage.SenderName, c.TargetMessage.SenderID), c.TargetMessage.Text)
	}

	b.WriteString("\n## Instructions\n")
	if hasNoContext(c) {
		b.WriteString("No prior context is available. Reply naturally and briefly to the message above.\n")
	} else {
		b.WriteString("Use the room summary, user profile, and recent messages above to match the conversation's tone and continuity.\n")
	}

	b.WriteString("\n## Output\n")
	b.WriteString(outputSpec)

	return replySystemPrompt, b.String()
}

func hasNoContext(c *Context) bool {
	return c.Room == nil && c.User == nil && len(c.History) == 0 && len(c.Messages) == 0
}

// writeContextSections renders room summary, user profile, prior AI chats
// oldest-first, then recent room messages newest-first with relative-time
// labels; target, if non-nil, is starred inline.
func writeContextSections(b *strings.Builder, c *Context, target *vectorstore.Message) {
	if c.Room != nil && c.Room.Summary != "" {
		fmt.Fprintf(b, "Room summary: %s\n", c.Room.Summary)
	}
	if c.User != nil && c.User.PersonalizationSummary != "" {
		fmt.Fprintf(b, "User profile: %s\n", c.User.PersonalizationSummary)
	}

	if len(c.History) > 0 {
		b.WriteString("Prior AI chats (oldest first):\n")
		for _, rec := range c.History {
			fmt.Fprintf(b, "- Q: %s\n  A: %s\n", rec.Question, rec.Answer)
		}
	}

	if len(c.Messages) > 0 {
		b.WriteString("Recent messages (newest first):\n")
		for _, m := range c.Messages {
			marker := "-"
			if target != nil && m.ExternalMessageID == target.ExternalMessageID {
				marker = "*"
			}
			fmt.Fprintf(b, "%s [%s] %s: %s\n", marker, relativeTime(m.CreatedAt), nonEmpty(m.SenderName, m.SenderID), m.Text)
		}
	}
}
