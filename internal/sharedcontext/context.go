// Package sharedcontext threads committed words and sentence history across
// every speaker in a meeting, so that one speaker's committed speech
// improves recognition of another speaker's reply.
package sharedcontext

import (
	"sort"
	"strings"
	"sync"

	"github.com/voicecore/meetingpipe/internal/hypothesis"
)

// DefaultHistorySize bounds the rolling sentence-history deque absent an
// explicit override.
const DefaultHistorySize = 30

// AttributedWord is a committed Word together with the (possibly unknown)
// speaker who uttered it.
type AttributedWord struct {
	hypothesis.Word
	SpeakerID string // empty string means unattributed / mixed mode
}

// Context is the cross-speaker committed-word log and rolling sentence
// history used as recognizer prompt input. It lives for one meeting and is
// safe for concurrent use, though the pipeline's single-threaded-per-meeting
// scheduling model means the mutex is only ever exercised by one goroutine
// at a time in practice — it exists so a future multithreaded driver can
// snapshot state without the orchestrator goroutine's cooperation.
type Context struct {
	mu          sync.RWMutex
	historySize int
	allWords    []AttributedWord
	sentHistory []string
}

// New returns an empty Context bounded to historySize sentences of rolling
// history. A non-positive historySize falls back to DefaultHistorySize.
func New(historySize int) *Context {
	if historySize <= 0 {
		historySize = DefaultHistorySize
	}
	return &Context{historySize: historySize}
}

// AddCommitted registers newly committed words from one speaker, keeps
// allWords sorted by start_sec, and appends the sentences formed by this
// batch's text to the rolling history.
func (c *Context) AddCommitted(words []hypothesis.Word, speakerID string) {
	if len(words) == 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, w := range words {
		c.allWords = append(c.allWords, AttributedWord{Word: w, SpeakerID: speakerID})
	}
	sort.SliceStable(c.allWords, func(i, j int) bool {
		return c.allWords[i].Start < c.allWords[j].Start
	})

	texts := make([]string, len(words))
	for i, w := range words {
		texts[i] = w.Text
	}
	committedText := strings.TrimSpace(strings.Join(texts, " "))
	if committedText == "" {
		return
	}

	sentences := splitSentences(committedText)
	c.sentHistory = append(c.sentHistory, sentences...)
	if len(c.sentHistory) > c.historySize {
		c.sentHistory = c.sentHistory[len(c.sentHistory)-c.historySize:]
	}
}

// BuildPrompt joins the text of every committed word ending at or before
// beforeTime, in chronological order, as the recognizer's prefix prompt.
func (c *Context) BuildPrompt(beforeTime float64) string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var b strings.Builder
	first := true
	for _, w := range c.allWords {
		if w.End > beforeTime {
			continue
		}
		if !first {
			b.WriteByte(' ')
		}
		b.WriteString(w.Text)
		first = false
	}
	return b.String()
}

// SentHistory returns a snapshot of the rolling sentence history, oldest
// first.
func (c *Context) SentHistory() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]string, len(c.sentHistory))
	copy(out, c.sentHistory)
	return out
}

// AllWords returns a snapshot of every committed word across all speakers,
// sorted by start_sec.
func (c *Context) AllWords() []AttributedWord {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]AttributedWord, len(c.allWords))
	copy(out, c.allWords)
	return out
}
