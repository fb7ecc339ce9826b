package app

import "quiz-desk/internal/quiz"

func sampleQuestions() []quiz.QuestionInput {
	return []quiz.QuestionInput{
		{
			Prompt:     "In which year was Python first released?",
			Options:    []string{"1989", "1991", "1995"},
			Answer:     "B",
			Category:   "Python",
			Difficulty: "Easy",
			Tags:       []string{"python", "history"},
		},
		{
			Prompt:     "Who created the Python language?",
			Options:    []string{"Guido van Rossum", "Bill Gates", "Linus Torvalds"},
			Answer:     "A",
			Category:   "Python",
			Difficulty: "Easy",
			Tags:       []string{"python", "creator"},
		},
		{
			Prompt:     "Which library is used for working with arrays in Python?",
			Options:    []string{"Pandas", "NumPy", "Matplotlib"},
			Answer:     "B",
			Category:   "Python",
			Difficulty: "Medium",
			Tags:       []string{"python", "libraries"},
		},
		{
			Prompt:     "Which method adds an element to the end of a list?",
			Options:    []string{"append()", "insert()", "extend()"},
			Answer:     "A",
			Category:   "Python",
			Difficulty: "Easy",
			Tags:       []string{"python", "list"},
		},
		{
			Prompt:     "Which keyword defines a function in Python?",
			Options:    []string{"function", "def", "func"},
			Answer:     "B",
			Category:   "Python",
			Difficulty: "Easy",
			Tags:       []string{"python", "syntax"},
		},
		{
			Prompt:     "Which Python data structure is ordered and mutable?",
			Options:    []string{"tuple", "set", "list"},
			Answer:     "C",
			Category:   "Python",
			Difficulty: "Medium",
			Tags:       []string{"python", "data-structures"},
		},
		{
			Prompt:     "Which method converts a string to upper case?",
			Options:    []string{"upper()", "capitalize()", "title()"},
			Answer:     "A",
			Category:   "Python",
			Difficulty: "Easy",
			Tags:       []string{"python", "string"},
		},
		{
			Prompt:     "Which keyword handles exceptions in Python?",
			Options:    []string{"catch", "except", "handle"},
			Answer:     "B",
			Category:   "Python",
			Difficulty: "Medium",
			Tags:       []string{"python", "exception"},
		},
	}
}
