// Package review lets a person inspect and rewrite a generated outline on a
// terminal before the sections are written.
package review

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"AutoBlogger/internal/generation"
	"AutoBlogger/internal/outline"
)

// Console asks on out and reads answers from in.
type Console struct {
	in  *bufio.Reader
	out io.Writer
}

var _ outline.Override = (*Console)(nil)

// NewConsole builds a reviewer over the given streams.
func NewConsole(in io.Reader, out io.Writer) *Console {
	return &Console{in: bufio.NewReader(in), out: out}
}

// Review prints the outline and, when the user agrees, reads a replacement
// list such as ["Header 1", "Header 2"]. Invalid input is asked again; end of
// input keeps the generated outline.
func (c *Console) Review(ctx context.Context, headers []string) ([]string, error) {
	fmt.Fprintln(c.out, "Generated outline:")
	for i, h := range headers {
		fmt.Fprintf(c.out, "  %d. %s\n", i+1, h)
	}

	answer, err := c.ask(ctx, "Do you want to modify the outline? (y/n): ")
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return headers, nil
	}
	if !strings.EqualFold(answer, "y") && !strings.EqualFold(answer, "yes") {
		return headers, nil
	}

	for {
		line, err := c.ask(ctx, `Modified outline as a list (e.g. ["Header1", "Header2"]): `)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return headers, nil
		}
		edited := generation.Strings(generation.DecodeList[string](line))
		if len(edited) > 0 {
			return edited, nil
		}
		fmt.Fprintln(c.out, "Invalid format, the outline should be a non-empty list. Please try again.")
	}
}

func (c *Console) ask(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fmt.Fprint(c.out, prompt)
	line, err := c.in.ReadString('\n')
	if err != nil && (err != io.EOF || strings.TrimSpace(line) == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
