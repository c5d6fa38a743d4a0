package section

import (
	"fmt"

	"AutoBlogger/internal/generation"
)

// untitledPage stands in for a page title that could not be read.
const untitledPage = "Failed to crawl title, but you continue process without title."

func queryPrompt(topic, header, lang string) string {
	return generation.Dedent(fmt.Sprintf(`
		i am writing an article with this keyword: %s
		i need to do information research before writing.
		for this specific header in the article: %s
		craft web search queries that obtain the most accurate information to write the paragraphs under this header.
		the queries MUST target accurate information, so that results do not point to other services or keywords.
		craft the search queries in %s. craft at least two queries for the header.
		return a JSON list where each item is an object with the single key "query".
		NO preamble and explanation. Do not give more than one list.
	`, topic, header, lang))
}

func bulletPrompt(pageTitle, pageText, header, lang string) string {
	return generation.Dedent(fmt.Sprintf(`
		title of the crawled article:
		%s

		content of article:
		%s

		i want to write paragraphs under the header %s
		first, from the title and content of the article, decide whether the header names a specific noun or a general concept. DO NOT mistake a general genre for a specific noun, as everything written afterwards will be wrong.
		generate point forms of the related information ONLY. do not give related aspects.
		if the information refers to another service or subject than the one looked for, returning no result is better than wrong information.
		do not misidentify details. check that every point is correct without misidentifying events or the subject of the information.
		label general information when it does not directly address this specific header. be careful of wrong countries, districts and human names; drop the points whose subject does not match the header.
		return in %s. no preamble and explanation.
	`, pageTitle, pageText, header, lang))
}

func prosePrompt(bullets, header, lang string) string {
	return generation.Dedent(fmt.Sprintf(`
		%s
		you are a helpful writing assistant, expert in writing fluently in a blogging tone.
		i want to write paragraphs under the h2 header %s
		from the bullet points, make sure you understand whether the header is a noun or a general concept. DO NOT mistake a general genre for a specific noun.
		DO NOT GIVE INCONSISTENT INFORMATION! if there are two versions of an answer, comprehend them and give one consistent answer.
		you must give exactly ONE <h2> in this reply.
		generate detailed paragraphs. you can elaborate, but never by guessing or exaggerating.
		no promotions, keep the tone professional, and write coherent fluent paragraphs instead of point forms.
		base the reply on the web search information only. do not create information.
		DO NOT INCLUDE INTRODUCTION AND CONCLUSION, OR RELATED ASPECTS. do not refer to other sections.
		return the reply as HTML. text must be wrapped in html tags. you can add <h3> and <strong> if needed, but do not overuse them.
		return in %s. no preamble and explanation.
	`, bullets, header, lang))
}
