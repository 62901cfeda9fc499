// Package agent answers questions about a portfolio report with Gemini models.
package agent

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"google.golang.org/genai"
)

// DefaultModel is the model used when none is configured.
const DefaultModel = "gemini-2.5-flash"

const prompt = "assist> "

// Agent is the assistant that handles the chat session.
type Agent struct {
	w           io.Writer
	r           *bufio.Reader
	Facilitator *Expert
	Experts     []*Expert
	// Print writes an answer, in markdown. It defaults to a plain write.
	Print func(w io.Writer, markdown string)
}

// New creates a new Agent whose facilitator consults the given experts.
//
// Answers are written to w (e.g., os.Stdout) and questions are read from r
// (e.g., os.Stdin).
func New(model string, w io.Writer, r io.Reader, experts ...*Expert) *Agent {
	return &Agent{
		w:           w,
		r:           bufio.NewReader(r),
		Experts:     experts,
		Facilitator: newFacilitator(model, experts...),
		Print:       func(w io.Writer, md string) { fmt.Fprintln(w, md) },
	}
}

// Start opens the chat sessions of the experts and of the facilitator.
func (a *Agent) Start(ctx context.Context, client *genai.Client) error {
	for _, e := range slices.Concat(a.Experts, []*Expert{a.Facilitator}) {
		if err := e.Start(ctx, client); err != nil {
			return fmt.Errorf("starting %s: %w", e.Name, err)
		}
	}
	return nil
}

// Run answers the prompts, then questions read from the agent's reader
// until "bye" or the end of the input. With interactive set to false it
// stops after the prompts.
func (a *Agent) Run(ctx context.Context, client *genai.Client, interactive bool, prompts ...string) error {
	if a.Facilitator.chat == nil {
		if err := a.Start(ctx, client); err != nil {
			return err
		}
	}
	if interactive {
		fmt.Fprintln(a.w, "Welcome to folio assist. Type 'bye' to exit.")
	}

	for {
		input, err := a.next(&prompts, interactive)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if input == "" {
			continue
		}
		if input == "bye" {
			return nil
		}

		content, err := a.Facilitator.Ask(ctx, &genai.Part{Text: input})
		if err != nil {
			return err
		}
		a.Print(a.w, content.Parts[0].Text)
	}
}

// next returns the next pending prompt, or reads one from the user.
func (a *Agent) next(prompts *[]string, interactive bool) (string, error) {
	if len(*prompts) > 0 {
		input := strings.TrimSpace((*prompts)[0])
		*prompts = (*prompts)[1:]
		if interactive && input != "" {
			fmt.Fprintf(a.w, "%s%s\n", prompt, input)
		}
		return input, nil
	}
	if !interactive {
		return "", io.EOF
	}
	fmt.Fprint(a.w, prompt)
	input, err := a.r.ReadString('\n')
	if err != nil && (input == "" || !errors.Is(err, io.EOF)) {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
