package session

import (
	"fmt"

	"campusassist/internal/models"
)

const welcomeMessage = "Hello! I'm your Smart Campus Assistant. 👋\n\n" +
	"I can help you with:\n\n" +
	"• **Ask questions** about your course materials\n" +
	"• **Summarize documents** - just say 'summarize [filename]' or 'give me a summary'\n" +
	"• **Generate practice quizzes** - try 'create a quiz with 5 questions'\n" +
	"• **Upload files** by dragging and dropping or using the upload button\n\n" +
	"**Try it now:** Upload a PDF and ask me to summarize it!"

const (
	genericErrorMessage = "Sorry, I encountered an error. Please try again."
	emptyDocumentText   = "No content found in the document."
	unsupportedUpload   = "Please upload PDF, DOCX, or PPTX files only."
	qaPrefix            = "Based on your uploaded materials:\n\n"
)

var noFilesMessages = map[models.IntentKind]string{
	models.IntentSummarize: "I don't see any uploaded files. Please upload a document first, then ask me to summarize it.",
	models.IntentQuiz:      "I don't see any uploaded files. Please upload course materials first, then ask me to create a quiz.",
	models.IntentQA:        "I don't see any uploaded files. Please upload course materials first, then ask me questions about them.",
}

func pdfSummaryReply(name string, pages int, summary string, extractedChars int) string {
	return fmt.Sprintf("**Summary of %s** (%d pages):\n\n%s\n\n---\n\n*Full document extracted %d characters. You can ask me specific questions about the content.*",
		name, pages, summary, extractedChars)
}

func remoteSummaryReply(name, summary string) string {
	return fmt.Sprintf("**Summary of %s:**\n\n%s", name, summary)
}

func quizReply(n int) string {
	return fmt.Sprintf("I've generated a practice quiz with %d questions based on your materials.", n)
}

func uploadedReply(file *models.UploadedFile) string {
	if file.HasText() {
		return fmt.Sprintf("✅ Successfully uploaded: **%s** (%d pages)\n\n📄 PDF content extracted! You can now:\n"+
			"• Ask questions about the content\n• Request a summary\n• Generate practice quizzes", file.Name, file.PageCount)
	}
	return fmt.Sprintf("✅ Successfully uploaded: **%s**\n\nYou can now ask me questions about it, request a summary, or generate a quiz!", file.Name)
}

func uploadFailedReply(name string) string {
	return fmt.Sprintf("❌ Failed to upload: %s", name)
}

func removedReply(name string) string {
	return fmt.Sprintf("Removed: %s", name)
}
