package remote

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"campusassist/internal/models"
)

var mockOptions = []string{
	"Option A - This would be generated from your documents",
	"Option B - AI would analyze content to create distractors",
	"Option C - Correct answer would be identified from materials",
	"Option D - All options would be contextually relevant",
}

const mockCorrectOption = 2

const mockExplanation = `This is a sample explanation. In a real implementation, the AI would generate questions by:
1. Analyzing key concepts from your uploaded materials
2. Creating multiple-choice questions with plausible distractors
3. Identifying the correct answer based on document content
4. Providing explanations that reference specific sections of your materials`

func mockUpload(name string, size int64, now time.Time) *UploadResult {
	return &UploadResult{
		ID:         uuid.NewString(),
		Filename:   name,
		Size:       size,
		UploadedAt: now.UTC().Format(time.RFC3339),
		Mocked:     true,
	}
}

func mockAnswer(question string) *Answer {
	return &Answer{
		Answer: fmt.Sprintf(`Based on your uploaded materials, here's a sample answer to your question: "%s".

In a real implementation, this would be generated using AI/ML models that analyze your uploaded documents. The system would:
1. Extract relevant information from your course materials
2. Use natural language processing to understand your question
3. Generate a comprehensive answer based on the content`, question),
		Mocked: true,
	}
}

func mockSummary(name string) *Summary {
	return &Summary{
		Summary: fmt.Sprintf(`Summary of %s:

This is a sample summary. In a real implementation, the system would:

1. Extract text content from the document (PDF, DOCX, or PPTX)
2. Use AI summarization models to generate concise summaries
3. Identify key concepts, main points, and important details
4. Present the summary in a structured format`, name),
		Mocked: true,
	}
}

func mockQuiz(n int, now time.Time) *QuizResult {
	questions := make([]models.Question, n)
	for i := range questions {
		questions[i] = models.Question{
			ID:            fmt.Sprintf("q%d", i+1),
			Question:      fmt.Sprintf("Sample question %d based on your uploaded materials?", i+1),
			Options:       append([]string(nil), mockOptions...),
			CorrectAnswer: mockOptions[mockCorrectOption],
			Explanation:   mockExplanation,
		}
	}
	return &QuizResult{
		Quiz: models.Quiz{
			ID:          uuid.NewString(),
			Questions:   questions,
			GeneratedAt: now,
		},
		Mocked: true,
	}
}
