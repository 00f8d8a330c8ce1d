package memory

import "quiz-result-service/internal/domain"

// SampleQuizzes is demo content used when no content store is configured.
func SampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"english-basics": {
			ID:            "english-basics",
			Title:         "English Basics",
			Subtitle:      "Grammar warm-up",
			Description:   "Five short questions on everyday English grammar.",
			Category:      "grammar",
			Tags:          []string{"beginner", "speaking"},
			Difficulty:    "easy",
			EstimatedTime: 5,
			IsPublic:      true,
			Status:        "published",
			Questions: []domain.Question{
				choice("q1", "She ___ to work every day.", "goes", "go", "going"),
				choice("q2", "Which word is a noun?", "table", "quickly", "blue"),
				choice("q3", "Pick the past tense of 'eat'.", "ate", "eated", "eating"),
				choice("q4", "They ___ finished their homework.", "have", "has", "having"),
				choice("q5", "Choose the correct article: ___ apple.", "an", "a", "the"),
			},
		},
		"learning-style": {
			ID:          "learning-style",
			Title:       "How Do You Learn?",
			Description: "A weighted self-assessment of study habits.",
			Category:    "habits",
			Tags:        []string{"motivation"},
			IsPublic:    true,
			Status:      "published",
			Questions: []domain.Question{
				weighted("q1", "How often do you practise?", 0, 2.5, 5),
				weighted("q2", "Do you review your mistakes?", 0, 2.5, 5),
			},
		},
	}
}

// SampleCatalog is demo recommendation content matching SampleQuizzes.
func SampleCatalog() map[domain.CatalogKind][]domain.CatalogItem {
	return map[domain.CatalogKind][]domain.CatalogItem{
		domain.CatalogCourses: {
			{ID: "c-grammar-101", Name: "Grammar Foundations", Tags: []string{"grammar", "beginner"},
				Levels: []domain.Level{domain.LevelNeedsImprovement, domain.LevelFair}},
			{ID: "c-grammar-201", Name: "Grammar in Context", Tags: []string{"grammar"},
				Levels: []domain.Level{domain.LevelGood, domain.LevelExcellent}},
			{ID: "c-speaking", Name: "Speak with Confidence", Tags: []string{"speaking"}},
			{ID: "c-habits", Name: "Study Habits That Stick", Tags: []string{"habits", "motivation"}},
		},
		domain.CatalogProducts: {
			{ID: "p-flashcards", Name: "Grammar Flashcards", Tags: []string{"grammar"}},
			{ID: "p-planner", Name: "Practice Planner", Tags: []string{"habits"}},
		},
		domain.CatalogStreaks: {
			{ID: "s-daily-5", Name: "Five Minutes a Day", Tags: []string{"beginner", "motivation"}},
		},
	}
}

func choice(id, prompt, correct string, wrong ...string) domain.Question {
	q := domain.Question{ID: id, Prompt: prompt, Points: 1}
	q.Options = append(q.Options, domain.Option{ID: id + "-a", Text: correct, Correct: true})
	for i, text := range wrong {
		q.Options = append(q.Options, domain.Option{ID: id + "-" + string(rune('b'+i)), Text: text})
	}
	return q
}

func weighted(id, prompt string, values ...float64) domain.Question {
	labels := []string{"Rarely", "Sometimes", "Always"}
	q := domain.Question{ID: id, Prompt: prompt}
	for i, v := range values {
		v := v
		q.Options = append(q.Options, domain.Option{ID: id + "-" + string(rune('a'+i)), Text: labels[i%len(labels)], Value: &v})
	}
	return q
}
