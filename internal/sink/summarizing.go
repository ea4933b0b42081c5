package sink

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"
)

// DefaultSummaryCadence is how many commits (Add calls) accumulate, across
// all speakers, before SummarizingSink asks for a fresh running summary.
const DefaultSummaryCadence = 20

// SummarizingSink decorates an inner Sink: every commit is forwarded
// unchanged, and on a configurable cadence (commit count, or meeting end) a
// chat-completion model is asked for a short running summary of everything
// said so far, which is then forwarded to the inner Sink as a "summary"
// rename-free commit from the synthetic speaker "summary".
type SummarizingSink struct {
	inner  Sink
	client openai.Client
	model  string
	cadence int

	mu        sync.Mutex
	sinceLast int
	transcript strings.Builder
}

// NewSummarizingSink builds a decorator around inner using apiKey to
// authenticate against the OpenAI chat-completions endpoint. cadence <= 0
// falls back to DefaultSummaryCadence.
func NewSummarizingSink(inner Sink, apiKey, model string, cadence int) *SummarizingSink {
	if cadence <= 0 {
		cadence = DefaultSummaryCadence
	}
	return &SummarizingSink{
		inner:   inner,
		client:  openai.NewClient(option.WithAPIKey(apiKey)),
		model:   model,
		cadence: cadence,
	}
}

func (s *SummarizingSink) Add(text, speakerID string, timestamp time.Time, startSec, endSec float64) error {
	if err := s.inner.Add(text, speakerID, timestamp, startSec, endSec); err != nil {
		return err
	}

	s.mu.Lock()
	if speakerID != "" {
		s.transcript.WriteString(speakerID)
		s.transcript.WriteString(": ")
	}
	s.transcript.WriteString(text)
	s.transcript.WriteByte('\n')
	s.sinceLast++
	due := s.sinceLast >= s.cadence
	if due {
		s.sinceLast = 0
	}
	snapshot := s.transcript.String()
	s.mu.Unlock()

	if !due {
		return nil
	}
	return s.summarize(context.Background(), snapshot, timestamp)
}

func (s *SummarizingSink) summarize(ctx context.Context, transcriptSoFar string, timestamp time.Time) error {
	summary, err := s.requestSummary(ctx, transcriptSoFar)
	if err != nil {
		slog.Warn("summarizing sink: chat completion failed", "error", err)
		return nil
	}
	return s.inner.Add(summary, "summary", timestamp, 0, 0)
}

func (s *SummarizingSink) requestSummary(ctx context.Context, transcriptSoFar string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(s.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage("Summarize the meeting transcript so far in two or three sentences."),
			openai.UserMessage(transcriptSoFar),
		},
	}

	resp, err := s.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("summarizing sink: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("summarizing sink: empty choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}

// Flush forces an out-of-cadence summary of everything accumulated so far,
// for use at meeting end.
func (s *SummarizingSink) Flush(ctx context.Context) error {
	s.mu.Lock()
	snapshot := s.transcript.String()
	s.sinceLast = 0
	s.mu.Unlock()

	if snapshot == "" {
		return nil
	}
	return s.summarize(ctx, snapshot, time.Now())
}

func (s *SummarizingSink) Rename(speakerID, name string) error {
	return s.inner.Rename(speakerID, name)
}

func (s *SummarizingSink) Close() error {
	_ = s.Flush(context.Background())
	return s.inner.Close()
}
