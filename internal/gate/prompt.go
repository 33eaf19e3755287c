package gate

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
)

// Prompt styles accepted by NewPrompter.
const (
	StyleLine = "line"
	StyleForm = "form"
)

// LinePrompter prints the question and reads one line per answer.
//
// Reads happen on a separate goroutine so a cancelled context releases Ask
// even though the underlying reader cannot be interrupted. A read left in
// flight by a cancelled Ask is picked up by the next call.
type LinePrompter struct {
	in      *bufio.Reader
	out     io.Writer
	pending chan lineRead
}

type lineRead struct {
	line string
	err  error
}

// NewLinePrompter reads answers from in and writes questions to out.
func NewLinePrompter(in io.Reader, out io.Writer) *LinePrompter {
	return &LinePrompter{in: bufio.NewReader(in), out: out}
}

func (p *LinePrompter) Ask(ctx context.Context, question string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if p.out != nil {
		fmt.Fprint(p.out, question)
	}
	if p.pending == nil {
		ch := make(chan lineRead, 1)
		go func() {
			line, err := p.in.ReadString('\n')
			ch <- lineRead{line: line, err: err}
		}()
		p.pending = ch
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-p.pending:
		p.pending = nil
		if r.err != nil {
			if errors.Is(r.err, io.EOF) && r.line != "" {
				return r.line, nil
			}
			return "", r.err
		}
		return r.line, nil
	}
}

// formOptions are the choices offered by FormPrompter. Each value is an
// answer ParseChoice understands.
var formOptions = []huh.Option[string]{
	huh.NewOption("Yes, run it", "yes"),
	huh.NewOption("Skip this one", "skip"),
	huh.NewOption("Yes, and stop asking", "yesforall"),
	huh.NewOption("Exit", "exit"),
}

// FormPrompter shows the choices as an interactive select list.
type FormPrompter struct{}

func (FormPrompter) Ask(ctx context.Context, _ string) (string, error) {
	var answer string
	field := huh.NewSelect[string]().
		Title("Proceed with this action?").
		Options(formOptions...).
		Value(&answer)

	err := huh.NewForm(huh.NewGroup(field)).RunWithContext(ctx)
	if errors.Is(err, huh.ErrUserAborted) {
		return "exit", nil
	}
	return answer, err
}

// NewPrompter picks a Prompter for style. The form prompter needs a real
// terminal on in; anything else falls back to line prompting.
func NewPrompter(style string, in io.Reader, out io.Writer) Prompter {
	if style == StyleForm {
		if f, ok := in.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
			return FormPrompter{}
		}
	}
	return NewLinePrompter(in, out)
}
