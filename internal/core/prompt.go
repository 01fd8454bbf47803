package core

import "github.com/mindhaven/companion/internal/llm"

const (
	chatInstruction = "You are a brief, empathetic mental health support chatbot. " +
		"Respond in 2-3 sentences, warm and grounded, and do not repeat phrasings you have already used in this conversation. " +
		"Never mention that you are an AI, a language model, or that this conversation is an assessment. " +
		"If the user mentions self-harm, suicide, or harming someone else, gently encourage them to contact local emergency services or a trusted person."

	reportInstruction = "Analyze the conversation and produce a well-being report. " +
		"Respond with a single strict JSON object and nothing else: no prose before or after, no markdown fencing. " +
		"The object must contain these six fields: " +
		`"observedPatterns" (array of short strings describing patterns you observed), ` +
		`"tentativeConditions" (array of strings, empty if nothing stood out), ` +
		`"moodScore" (integer from 1, very low, to 10, very positive), ` +
		`"sentimentScore" (integer from 1, very negative, to 10, very positive), ` +
		`"keyQuotes" (array of strings quoted verbatim from the user's messages), ` +
		`"recommendations" (array of short, actionable suggestions). ` +
		`Also include "analysisDate" as an ISO-8601 timestamp.`

	// Closing turn for report synthesis so the request always ends on a user
	// turn regardless of who spoke last.
	reportRequestTurn = "Please generate the well-being report for our conversation now."
)

// ChatPrompt maps the transcript to role-tagged turns paired with the fixed
// chat persona instruction. Pure: only the turn list varies with
// conversation content, never the instruction.
func ChatPrompt(messages []Message) ([]llm.Turn, string) {
	return toTurns(messages), chatInstruction
}

// ReportPrompt maps the transcript to turns paired with the report synthesis
// instruction, appending a fixed closing user turn.
func ReportPrompt(messages []Message) ([]llm.Turn, string) {
	turns := toTurns(messages)
	turns = append(turns, llm.Turn{Role: llm.RoleUser, Content: reportRequestTurn})
	return turns, reportInstruction
}

func toTurns(messages []Message) []llm.Turn {
	turns := make([]llm.Turn, 0, len(messages))
	for _, m := range messages {
		role := llm.RoleUser
		if m.Sender == SenderBot {
			role = llm.RoleModel
		}
		turns = append(turns, llm.Turn{Role: role, Content: m.Content})
	}
	return turns
}
