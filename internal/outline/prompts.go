package outline

import (
	"fmt"

	"AutoBlogger/internal/domain"
	"AutoBlogger/internal/generation"
)

func competitorPrompt(topic string, results []domain.SearchResult) string {
	return generation.Dedent(fmt.Sprintf(`
		i want to write a blog article of the keyword %s.
		here are the top results when i search for this keyword:
		%s

		i want to take some articles as reference. keep only the informational intent results that address my topic.
		you should return 5-9 results after filtering.
		return a JSON list of the useful search results in the same format: each list item is an object with title, url and snippet.
		no preamble and explanation needed.
	`, topic, generation.QuoteList(results)))
}

func headerPrompt(topic, pageText, lang string) string {
	return generation.Dedent(fmt.Sprintf(`
		i want to write a blog article of the keyword %s.
		here is the website text of a top ranked article about the topic:
		%s

		identify the topics that they wrote, and reform them into h2 headers.
		output in %s
		return a JSON list of h2 headers quoted with double quotes.
		NO preamble and explanation. I only want the list without other words.
	`, topic, pageText, lang))
}

func refinePrompt(topic string, candidates []string, lang string) string {
	return generation.Dedent(fmt.Sprintf(`
		for this keyword: %s
		here are the headers that top ranked articles write about, without ordering:
		%s

		now i want to write a large blog article about this topic.
		from these headers, PICK the best h2 headers with a consistent level of specificity, and REWRITE them in my own voice.
		EVERY HEADER MUST COVER A DISTINCT ASPECT. no duplicated aspects, no totally unrelated headers.
		no generic or catch-all phrases. do not form a header by clustering several other headers.
		quality comes first: fewer headers are better than vague and overly broad ones.
		headers should be in %s
		return a JSON list of headers quoted with double quotes.
		NO preamble and explanation needed.
	`, topic, generation.QuoteList(candidates), lang))
}

func selectPrompt(topic string, headers []string, lang string, size int) string {
	return generation.Dedent(fmt.Sprintf(`
		i want to write a blog article of the keyword %s.
		here are the proposed h2 headers:
		%s

		some headers may share an aspect, have an unclear intent, or differ in specificity.
		for example 'shenzhen must go places' and 'shenzhen longhua district dessert shops' differ a lot in specificity. in that case remove the one with the bigger coverage, i.e. 'shenzhen must go places'.
		delete the vague or inappropriate headers ONLY. keep acceptable headers unchanged.
		expected header count: %d. keep only the best headers, never pad to reach the count.
		EVERY HEADER SHOULD BE A DISTINCT ASPECT!
		output in %s
		return a JSON list of h2 headers quoted with double quotes.
		NO preamble and explanation. I only want the list without other words.
	`, topic, generation.QuoteList(headers), size, lang))
}
