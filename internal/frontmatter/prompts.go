package frontmatter

import (
	"fmt"

	"AutoBlogger/internal/generation"
)

func titlePrompt(topic string, outline []string, lang string) string {
	return generation.Dedent(fmt.Sprintf(`
		i want to write a blog article of the keyword %s.
		here are all the <h2> headers i am going to cover in my blog article:
		%s

		i want a title that is clickbait enough, conveys what the article discusses, has a moderate length and a humanized tone.
		it must have informational intent. words like "盤點", "攻略", "方法" are favored.
		if you add numbers like '7大', make sure it matches the number of headers.
		SEO optimize the title with the keyword %s naturally.
		return a single JSON object with the single key "title".
		output in %s
		AGAIN: NO preamble and explanation needed.
	`, topic, generation.QuoteList(outline), topic, lang))
}

func imagePrompt(title string, outline []string, previous string) string {
	var aspect, again string
	if previous != "" {
		aspect = fmt.Sprintf("and the headers of the article:\n%s\n\nmake sure the query covers a different aspect and finds different results than the previous query: %s",
			generation.QuoteList(outline), previous)
		again = "AGAIN: the query must be a significantly different aspect from the previous query: " + previous
	}
	return generation.Dedent(fmt.Sprintf(`
		i have this blog title:
		%s

		%s

		now i want to download an image for this blog post. give me ONE search query ONLY, in a JSON list.
		make the query searchable, no long tail keywords, but keep it to the point and related to the blog title.

		%s

		output the query in english as a single dimensional JSON list.
		No preamble and explanations.
	`, title, aspect, again))
}

func metadataPrompt(topic string, outline []string, lang string) string {
	return generation.Dedent(fmt.Sprintf(`
		i am writing an article with this keyword: %s
		now i need two HTML tags, <meta name="description" content=""> and <meta name="keywords" content="">
		fill in the content parts using NLP techniques, SEO optimized naturally for the main keyword and headers below:
		main keyword: %s
		all h2 headers: %s
		return only the two HTML meta tags, properly formatted as HTML.
		output the description content and keywords content in %s.
		AGAIN: NO preamble and explanations.
	`, topic, topic, generation.QuoteList(outline), lang))
}

func introPrompt(title string, outline []string, lang string) string {
	return generation.Dedent(fmt.Sprintf(`
		i want to write a blog article with title: %s
		the headers i have written are:
		%s
		craft an introductory paragraph that captivates readers to continue reading. it can be a bit clickbait.
		starting with a question is preferred.
		return the introductory paragraph wrapped in <p> tags.
		return in %s. no preamble and explanation.
	`, title, generation.QuoteList(outline), lang))
}
