package sharedcontext

import (
	"testing"

	"github.com/voicecore/meetingpipe/internal/hypothesis"
)

func TestContext_BuildPromptOrdering(t *testing.T) {
	ctx := New(DefaultHistorySize)
	ctx.AddCommitted([]hypothesis.Word{
		{Start: 5.0, End: 5.5, Text: "open"},
		{Start: 5.5, End: 6.0, Text: "the"},
		{Start: 6.0, End: 6.5, Text: "door"},
	}, "speakerA")

	prompt := ctx.BuildPrompt(10.0)
	if prompt != "open the door" {
		t.Fatalf("got %q, want %q", prompt, "open the door")
	}
}

func TestContext_CrossSpeakerPrompt(t *testing.T) {
	ctx := New(DefaultHistorySize)
	ctx.AddCommitted([]hypothesis.Word{
		{Start: 0.0, End: 0.5, Text: "open"},
		{Start: 0.5, End: 1.0, Text: "the"},
		{Start: 1.0, End: 1.5, Text: "door"},
	}, "A")

	// Speaker B starts speaking at t=10s; the prompt built for B's request
	// must include A's prior commit verbatim.
	prompt := ctx.BuildPrompt(10.0)
	if prompt != "open the door" {
		t.Fatalf("expected cross-speaker prompt to include prior commit, got %q", prompt)
	}
}

func TestContext_AllWordsSortedByStart(t *testing.T) {
	ctx := New(DefaultHistorySize)
	ctx.AddCommitted([]hypothesis.Word{{Start: 5.0, End: 5.5, Text: "later"}}, "B")
	ctx.AddCommitted([]hypothesis.Word{{Start: 1.0, End: 1.5, Text: "earlier"}}, "A")

	words := ctx.AllWords()
	if len(words) != 2 || words[0].Text != "earlier" || words[1].Text != "later" {
		t.Fatalf("expected words sorted by start_sec, got %v", words)
	}
}

func TestContext_SentHistoryBounded(t *testing.T) {
	ctx := New(2)
	ctx.AddCommitted([]hypothesis.Word{{Start: 0, End: 1, Text: "First."}}, "")
	ctx.AddCommitted([]hypothesis.Word{{Start: 1, End: 2, Text: "Second."}}, "")
	ctx.AddCommitted([]hypothesis.Word{{Start: 2, End: 3, Text: "Third."}}, "")

	history := ctx.SentHistory()
	if len(history) > 2 {
		t.Fatalf("expected history bounded to 2, got %d entries: %v", len(history), history)
	}
}

func TestSplitSentences(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want []string
	}{
		{"simple period", "Hello world. Goodbye now.", []string{"Hello world.", "Goodbye now."}},
		{"question mark", "Is this working? Yes it is.", []string{"Is this working?", "Yes it is."}},
		{"abbreviation not split", "Dr. Smith arrived.", []string{"Dr. Smith arrived."}},
		{"initials not split", "e.g. this stays whole.", []string{"e.g. this stays whole."}},
		{"no boundary", "no boundary here", []string{"no boundary here"}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := splitSentences(c.in)
			if len(got) != len(c.want) {
				t.Fatalf("got %v, want %v", got, c.want)
			}
			for i := range got {
				if got[i] != c.want[i] {
					t.Errorf("piece %d: got %q, want %q", i, got[i], c.want[i])
				}
			}
		})
	}
}
