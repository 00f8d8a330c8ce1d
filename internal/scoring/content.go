package scoring

import "quiz-result-service/internal/domain"

type levelText struct {
	feedback        string
	recommendations []string
}

var levelTexts = map[domain.Level]levelText{
	domain.LevelExcellent: {
		feedback: "Outstanding work on {{.Title}}! You scored {{.Percentage}}% and showed a thorough command of the material.",
		recommendations: []string{
			"Take on advanced material in this topic to keep growing.",
			"Share what you know: explaining concepts to others deepens mastery.",
			"Try a timed retake to sharpen speed as well as accuracy.",
		},
	},
	domain.LevelGood: {
		feedback: "Good job on {{.Title}}. You scored {{.Percentage}}%, a solid grasp with a few gaps left to close.",
		recommendations: []string{
			"Review the questions you missed and note why the correct option fits.",
			"Practice with intermediate exercises in the weaker areas.",
			"Retake the quiz in a few days to confirm retention.",
		},
	},
	domain.LevelFair: {
		feedback: "You scored {{.Percentage}}% on {{.Title}}. The fundamentals are there, but several areas need more practice.",
		recommendations: []string{
			"Revisit the core concepts of this topic before moving on.",
			"Work through guided examples and check each step.",
			"Set a short daily study streak to build consistency.",
		},
	},
	domain.LevelNeedsImprovement: {
		feedback: "You scored {{.Percentage}}% on {{.Title}}. This topic needs more attention, and a structured plan will help.",
		recommendations: []string{
			"Start with an introductory course covering the basics.",
			"Study one concept at a time and test yourself after each.",
			"Ask a mentor or study group for help with difficult points.",
			"Retake the quiz once you have reviewed the fundamentals.",
		},
	},
}
