// Package summary turns one user's daily messages into a tagged summary.
package summary

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/edgard/cotebot/internal/domain/model"
	"github.com/edgard/cotebot/internal/llm"
)

// SystemPrompt instructs the model to produce the per-user bullet list.
const SystemPrompt = `당신은 코딩 테스트 스터디 채팅방의 활동을 정리하는 도우미입니다.
주어진 메시지에서 오늘 푼 코딩 테스트 문제를 찾아 한국어 글머리표 목록으로 요약하세요.
첫 줄은 반드시 "- 총 N문제" 형식으로 푼 문제 수를 적으세요.
문제 링크나 문제 번호만 있는 메시지도 한 문제로 셉니다.
이어지는 각 줄은 "- "로 시작하며 문제 이름이나 번호와 간단한 메모를 적습니다.
목록 외의 설명은 쓰지 마세요.`

// PromptLead precedes the formatted messages in the user prompt.
const PromptLead = "다음 메시지들에서 코딩 테스트 활동을 요약해주세요:\n\n"

// Summarizer calls the LLM once per user with a bounded wait.
type Summarizer struct {
	client  llm.Client
	timeout time.Duration
	logger  *slog.Logger
}

// New returns a Summarizer that gives each call at most timeout.
func New(client llm.Client, timeout time.Duration, logger *slog.Logger) *Summarizer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Summarizer{
		client:  client,
		timeout: timeout,
		logger:  logger.With("component", "summarizer"),
	}
}

// BuildPrompt formats msgs as "{name}: {content}" lines after PromptLead.
func BuildPrompt(user model.TrackedUser, msgs []model.Message) string {
	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		lines = append(lines, fmt.Sprintf("%s: %s", user.Name(), m.Content))
	}
	return PromptLead + strings.Join(lines, "\n")
}

type completion struct {
	text string
	err  error
}

// Summarize never returns an error; failures are reported through the
// Outcome of the returned Summary. An empty msgs skips the LLM entirely.
func (s *Summarizer) Summarize(ctx context.Context, user model.TrackedUser, msgs []model.Message) model.Summary {
	result := model.Summary{User: user, MessageCount: len(msgs)}
	if len(msgs) == 0 {
		result.Outcome = model.OutcomeEmpty
		return result
	}

	log := s.logger.With("user_id", user.ID, "messages", len(msgs))
	prompt := BuildPrompt(user, msgs)

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	// The provider may ignore cancellation; the select bounds the wait anyway.
	done := make(chan completion, 1)
	go func() {
		text, err := s.client.Complete(callCtx, SystemPrompt, prompt)
		done <- completion{text: text, err: err}
	}()

	start := time.Now()
	select {
	case <-callCtx.Done():
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			log.WarnContext(ctx, "LLM call timed out", "timeout", s.timeout)
			result.Outcome = model.OutcomeTimedOut
		} else {
			log.WarnContext(ctx, "LLM call cancelled", "error", ctx.Err())
			result.Outcome = model.OutcomeFailed
		}
		result.Err = callCtx.Err()
		return result
	case c := <-done:
		switch {
		case errors.Is(c.err, context.DeadlineExceeded) && ctx.Err() == nil:
			log.WarnContext(ctx, "LLM call timed out", "timeout", s.timeout)
			result.Outcome = model.OutcomeTimedOut
			result.Err = c.err
		case c.err != nil:
			log.ErrorContext(ctx, "LLM call failed", "error", c.err)
			result.Outcome = model.OutcomeFailed
			result.Err = c.err
		case strings.TrimSpace(c.text) == "":
			log.ErrorContext(ctx, "LLM returned an empty summary")
			result.Outcome = model.OutcomeFailed
			result.Err = errors.New("empty response from LLM")
		default:
			log.DebugContext(ctx, "LLM call succeeded", "duration", time.Since(start))
			result.Outcome = model.OutcomeSucceeded
			result.Text = strings.TrimSpace(c.text)
		}
		return result
	}
}
