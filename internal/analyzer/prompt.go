package analyzer

import (
	"fmt"
	"strings"

	"github.com/sells-group/company-analyzer/internal/model"
)

const analysisSystem = "You are an expert business analyst. You read website content and return company facts as a single JSON object."

func analysisPrompt(pageURL string, page *model.ExtractionResult) string {
	var b strings.Builder
	b.WriteString("Analyze the following website content and extract key business information.\n\n")
	fmt.Fprintf(&b, "Title: %s\n", page.Title)
	fmt.Fprintf(&b, "Meta Description: %s\n", page.MetaDescription)
	fmt.Fprintf(&b, "Meta Keywords: %s\n\n", page.MetaKeywords)
	b.WriteString("Content:\n```\n")
	b.WriteString(page.CleanedText)
	b.WriteString("\n```\n\n")
	fmt.Fprintf(&b, "Website URL: %s\n\n", pageURL)
	b.WriteString(`Extract:
1. Company name, usually found in the title.
2. Industry with sub-industries.
3. Company size: one of Small, Medium, Large, Enterprise or Unknown, and an employee range if stated.
4. Headquarters, other offices and countries of operation.
5. A brief description of what the company does.
6. Main products or services.
7. Technologies mentioned on the website.
8. Founded year, if mentioned.

Every confidence_score is a number between 0 and 1. When a fact is not on the page use "Unknown" or an empty list with a low confidence score; never guess precise values.

Respond with only a JSON object that satisfies this JSON schema:
`)
	b.WriteString(businessDetailsSchema.raw)
	return b.String()
}

const answerInstructions = `Respond with only a JSON object of the form {"answer": string, "confidence_score": number between 0 and 1}.`

func synthesisPrompt(question string, details *model.BusinessDetails, results []model.SearchResult) string {
	var b strings.Builder
	if details != nil {
		name := details.CompanyName
		if name == "" {
			name = details.WebsiteURL
		}
		fmt.Fprintf(&b, "Company: %s\n", name)
		if details.Description != "" {
			fmt.Fprintf(&b, "Company description: %s\n", details.Description)
		}
		b.WriteString("\n")
	}

	if len(results) == 0 {
		b.WriteString("No web search results are available. Answer from general knowledge only, and lower the confidence score to reflect that.\n\n")
	} else {
		b.WriteString("Web search results:\n")
		for i, r := range results {
			fmt.Fprintf(&b, "%d. %s\n   %s\n   %s\n", i+1, r.Title, r.URL, r.Snippet)
		}
		b.WriteString("\nAnswer using the search results. If they do not contain the answer, say so and use a low confidence score.\n\n")
	}

	fmt.Fprintf(&b, "Question: %s\n\n", question)
	b.WriteString(answerInstructions)
	return b.String()
}

func directPrompt(question string) string {
	return fmt.Sprintf("Question: %s\n\n%s", question, answerInstructions)
}
