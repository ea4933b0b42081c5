package hypothesis

import "testing"

func words(triples ...[3]any) []Word {
	out := make([]Word, len(triples))
	for i, t := range triples {
		out[i] = Word{Start: t[0].(float64), End: t[1].(float64), Text: t[2].(string)}
	}
	return out
}

func TestNormalize(t *testing.T) {
	t.Run("lowercases and strips punctuation", func(t *testing.T) {
		if got := Normalize("Hello!"); got != "hello" {
			t.Errorf("got %q, want %q", got, "hello")
		}
	})
	t.Run("round trip is idempotent", func(t *testing.T) {
		cases := []string{"Hello, World!", "  already lower  ", "Mixed-CASE_word"}
		for _, c := range cases {
			once := Normalize(c)
			twice := Normalize(once)
			if once != twice {
				t.Errorf("normalize(normalize(%q)) = %q, want %q", c, twice, once)
			}
		}
	})
}

func TestBuffer_SingleStride(t *testing.T) {
	b := New()
	b.Insert(words([3]any{0.0, 0.5, "hello"}, [3]any{0.5, 1.0, "world"}), 0)
	commit := b.Flush()
	if len(commit) != 0 {
		t.Fatalf("expected no commits on first flush, got %d", len(commit))
	}
	if len(b.buffer) != 2 || b.buffer[0].Text != "hello" || b.buffer[1].Text != "world" {
		t.Fatalf("expected buffer [hello world], got %v", b.buffer)
	}
}

func TestBuffer_LCPCommitOnSecondStride(t *testing.T) {
	b := New()
	b.Insert(words([3]any{0.0, 0.5, "hello"}, [3]any{0.5, 1.0, "world"}), 0)
	b.Flush()

	b.Insert(words(
		[3]any{0.0, 0.5, "hello"},
		[3]any{0.5, 1.0, "world"},
		[3]any{5.0, 5.5, "again"},
	), 0)
	commit := b.Flush()

	if len(commit) != 2 || commit[0].Text != "hello" || commit[1].Text != "world" {
		t.Fatalf("expected commit [hello world], got %v", commit)
	}
	if len(b.buffer) != 1 || b.buffer[0].Text != "again" {
		t.Fatalf("expected buffer [again], got %v", b.buffer)
	}
	if b.LastCommitedTime() != 1.0 {
		t.Fatalf("expected last_commited_time 1.0, got %v", b.LastCommitedTime())
	}
}

func TestBuffer_NgramDedup(t *testing.T) {
	b := New()
	b.Insert(words([3]any{0.0, 0.5, "hello"}, [3]any{0.5, 1.0, "world"}), 0)
	b.Flush()
	b.Insert(words(
		[3]any{0.0, 0.5, "hello"},
		[3]any{0.5, 1.0, "world"},
		[3]any{5.0, 5.5, "again"},
	), 0)
	b.Flush()

	// Next stride's recognizer output repeats the overlapping tail "world"
	// before new content.
	b.Insert(words(
		[3]any{0.95, 1.3, "World"},
		[3]any{1.4, 1.8, "once"},
		[3]any{1.8, 2.2, "more"},
	), 0)

	if len(b.new) != 2 || b.new[0].Text != "once" || b.new[1].Text != "more" {
		t.Fatalf("expected dedup to drop leading 'World', got %v", b.new)
	}

	commit := b.Flush()
	for _, w := range commit {
		if w.Text == "World" || w.Text == "world" {
			t.Fatalf("spurious re-commit of deduped word: %v", commit)
		}
	}
}

func TestBuffer_SilenceFlushComplete(t *testing.T) {
	b := New()
	b.Insert(words([3]any{0.0, 0.5, "hello"}, [3]any{0.5, 1.0, "world"}), 0)
	b.Flush()
	b.Insert(words(
		[3]any{0.0, 0.5, "hello"},
		[3]any{0.5, 1.0, "world"},
		[3]any{5.0, 5.5, "again"},
	), 0)
	b.Flush()

	tail := b.Complete()
	if len(tail) != 1 || tail[0].Text != "again" {
		t.Fatalf("expected complete() to return [again], got %v", tail)
	}
}

func TestBuffer_InsertDropsAtOrBeforeFloor(t *testing.T) {
	b := New()
	b.SetLastCommitedTime(2.0)
	b.Insert(words(
		[3]any{1.85, 2.1, "stale"},
		[3]any{2.5, 2.7, "fresh"},
	), 0)
	for _, w := range b.new {
		if w.Text == "stale" {
			t.Fatalf("expected word at or before last_commited_time-0.1 to be dropped, got %v", b.new)
		}
	}
}

func TestBuffer_PopCommited(t *testing.T) {
	b := New()
	b.Insert(words([3]any{0.0, 0.5, "a"}, [3]any{0.5, 1.0, "b"}), 0)
	b.Flush()
	b.Insert(words([3]any{0.0, 0.5, "a"}, [3]any{0.5, 1.0, "b"}, [3]any{1.0, 1.5, "c"}), 0)
	b.Flush()

	popped := b.PopCommited(1.0)
	if len(popped) != 2 || popped[0].Text != "a" || popped[1].Text != "b" {
		t.Fatalf("expected pop of [a b], got %v", popped)
	}
	if len(b.committedInBuffer) != 0 {
		t.Fatalf("expected committedInBuffer drained, got %v", b.committedInBuffer)
	}
}

func TestBuffer_EndSecNonDecreasing(t *testing.T) {
	b := New()
	last := 0.0
	rounds := [][]Word{
		words([3]any{0.0, 0.5, "one"}, [3]any{0.5, 1.0, "two"}),
		words([3]any{0.0, 0.5, "one"}, [3]any{0.5, 1.0, "two"}, [3]any{1.0, 1.5, "three"}),
		words([3]any{0.5, 1.0, "two"}, [3]any{1.0, 1.5, "three"}, [3]any{1.5, 2.0, "four"}),
	}
	for _, r := range rounds {
		b.Insert(r, 0)
		commit := b.Flush()
		for _, w := range commit {
			if w.End < last {
				t.Fatalf("end_sec decreased: %v after %v", w.End, last)
			}
			last = w.End
		}
		if b.LastCommitedTime() < last-1e-9 {
			t.Fatalf("last_commited_time regressed: %v < %v", b.LastCommitedTime(), last)
		}
	}
}
