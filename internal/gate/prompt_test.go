package gate

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLinePrompterReadsLines(t *testing.T) {
	out := &bytes.Buffer{}
	p := NewLinePrompter(strings.NewReader("y\nskip\nlast"), out)

	for _, want := range []string{"y\n", "skip\n", "last"} {
		got, err := p.Ask(context.Background(), "Q? ")
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	_, err := p.Ask(context.Background(), "Q? ")
	require.True(t, errors.Is(err, io.EOF))
	require.Equal(t, "Q? Q? Q? Q? ", out.String())
}

func TestNewPrompterFallsBackToLines(t *testing.T) {
	p := NewPrompter(StyleForm, strings.NewReader("y\n"), io.Discard)
	_, isLine := p.(*LinePrompter)
	require.True(t, isLine, "non-terminal input must use the line prompter")

	p = NewPrompter(StyleLine, strings.NewReader("y\n"), io.Discard)
	_, isLine = p.(*LinePrompter)
	require.True(t, isLine)
}

func TestLinePrompterCancelledMidRead(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	p := NewLinePrompter(pr, io.Discard)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)
	_, err := p.Ask(ctx, "Q? ")
	require.ErrorIs(t, err, context.Canceled)

	// The abandoned read still delivers to the next question.
	go pw.Write([]byte("s\n"))
	got, err := p.Ask(context.Background(), "Q? ")
	require.NoError(t, err)
	require.Equal(t, "s\n", got)
}

func TestLinePrompterCancelledBeforeAsking(t *testing.T) {
	out := &bytes.Buffer{}
	p := NewLinePrompter(strings.NewReader("y\n"), out)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Ask(ctx, "Q? ")
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, out.String())
}

func TestFormOptionsAreRecognisedAnswers(t *testing.T) {
	want := map[string]Choice{
		"yes":       ChoiceYes,
		"skip":      ChoiceSkip,
		"yesforall": ChoiceYesForAll,
		"exit":      ChoiceExit,
	}
	require.Len(t, formOptions, len(want))

	seen := make(map[Choice]bool)
	for _, o := range formOptions {
		choice := ParseChoice(o.Value)
		require.NotEqual(t, ChoiceUnknown, choice, "option %q", o.Key)
		require.Equal(t, want[o.Value], choice, "option %q", o.Key)
		seen[choice] = true
	}
	require.Len(t, seen, len(want))
}
