package application

import "strings"

// Fixed replies chosen by Classify. The text is reproduced verbatim for every
// client, so changing it is a behavior change.
const (
	ReplyStress    = "I hear that you're feeling stressed. That's completely valid. Let's try a quick breathing exercise: Breathe in for 4 counts, hold for 4, then exhale for 6. Would you like to talk about what's causing this stress?"
	ReplySad       = "I'm sorry you're feeling this way. Your feelings are important and valid. Remember that it's okay to not be okay sometimes. What's been weighing on your mind?"
	ReplySleep     = "Sleep difficulties can be really challenging. Have you tried creating a bedtime routine? Avoiding screens 30 minutes before bed and practicing relaxation techniques can help. What's your sleep environment like?"
	ReplyWork      = "Work-related stress is very common. It's important to set boundaries and take breaks. Have you been able to take time for yourself outside of work?"
	ReplyGratitude = "I'm so glad to hear that! Remember, I'm always here when you need support. Taking care of your mental health is a journey, and you're doing great."
	ReplyHelp      = "I'm here to listen and support you. While I can provide coping strategies, please remember that for serious concerns, reaching out to a mental health professional is important. What would you like to talk about?"
	ReplyFallback  = "Thank you for sharing that with me. Your feelings are valid. Tell me more about what you're experiencing. I'm here to listen without judgment."
)

type replyRule struct {
	intent   string
	keywords []string
	reply    string
}

// replyRules is evaluated top to bottom; the first rule with a keyword
// contained in the utterance wins.
var replyRules = []replyRule{
	{intent: "stress", keywords: []string{"stress", "anxious", "anxiety"}, reply: ReplyStress},
	{intent: "sadness", keywords: []string{"sad", "depressed", "down"}, reply: ReplySad},
	{intent: "sleep", keywords: []string{"sleep", "insomnia", "tired"}, reply: ReplySleep},
	{intent: "work", keywords: []string{"work", "job"}, reply: ReplyWork},
	{intent: "gratitude", keywords: []string{"thank", "better", "good"}, reply: ReplyGratitude},
	{intent: "help", keywords: []string{"help", "advice"}, reply: ReplyHelp},
}

// Classify returns the supportive reply for utterance. Matching is a
// case-insensitive substring test, so "stressed" and "downtown" both match.
// Utterances that match nothing, including "", get ReplyFallback.
func Classify(utterance string) string {
	_, reply := classify(utterance)
	return reply
}

// Intent returns the name of the rule that matched utterance, or "fallback".
func Intent(utterance string) string {
	intent, _ := classify(utterance)
	return intent
}

func classify(utterance string) (string, string) {
	lower := strings.ToLower(utterance)
	for _, rule := range replyRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.intent, rule.reply
			}
		}
	}
	return "fallback", ReplyFallback
}
