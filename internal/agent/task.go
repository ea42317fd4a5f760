package agent

import "fmt"

// BuildTask renders the extraction instruction for a single URL. The wording
// is deliberately restrictive so the model never treats the run as an
// open-ended browsing task.
func BuildTask(pageURL string) string {
	return fmt.Sprintf(
		"You are a web scraping assistant. Your ONLY job is to extract text from the provided URL: %s. "+
			"DO NOT navigate to any other URLs. DO NOT use search. "+
			"Your primary goal is to extract the full user-assistant conversation from the page. "+
			"Identify each turn of the conversation clearly, separating user and assistant roles. "+
			"If there are code blocks within the conversation, ensure they are included and properly formatted using markdown code fences (```). "+
			"If the page does not contain a conversation, return the main text content of the page. "+
			"Return only the final extracted text as a single string.",
		pageURL,
	)
}
