// Package report renders per-user summaries into the text posted to the
// write channel.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/edgard/cotebot/internal/config"
	"github.com/edgard/cotebot/internal/domain/model"
)

// DateLayout formats the run date in the date header style.
const DateLayout = "2006.01.02"

// Composer assembles summaries into a report. Mode selects between the
// zero-count-line and omit-absent designs; a Composer never mixes them.
type Composer struct {
	Mode     string
	Header   string
	Title    string
	Messages config.MessagesConfig
}

// NewComposer builds a Composer from the summary and message configuration.
func NewComposer(cfg config.SummaryConfig, msgs config.MessagesConfig) *Composer {
	return &Composer{
		Mode:     cfg.ReportMode,
		Header:   cfg.Header,
		Title:    cfg.Title,
		Messages: msgs,
	}
}

// Compose renders summaries in the given order under a header for date.
func (c *Composer) Compose(summaries []model.Summary, date time.Time) string {
	var b strings.Builder
	b.WriteString(c.header(date))
	b.WriteString("\n\n")

	blocks := 0
	for _, s := range summaries {
		body, ok := c.body(s)
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "%s의 활동:\n%s\n\n", s.User.Name(), body)
		blocks++
	}

	if blocks == 0 && c.Mode == config.ReportModeOmitAbsent {
		b.WriteString(c.Messages.NoActivity)
	}

	return strings.TrimRight(b.String(), "\n")
}

func (c *Composer) header(date time.Time) string {
	if c.Header == config.HeaderDate {
		return strings.TrimSpace(date.Format(DateLayout) + " " + c.Title)
	}
	return c.Title
}

// body renders one user's block content. ok is false when the user is
// omitted from the report.
func (c *Composer) body(s model.Summary) (string, bool) {
	switch s.Outcome {
	case model.OutcomeSucceeded:
		return s.Text, true
	case model.OutcomeEmpty:
		if c.Mode == config.ReportModeOmitAbsent {
			return "", false
		}
		return c.Messages.ZeroCount, true
	case model.OutcomeTimedOut:
		return "- " + c.Messages.TimedOut, true
	default:
		cause := "unknown error"
		if s.Err != nil {
			cause = s.Err.Error()
		}
		return "- " + fmt.Sprintf(c.Messages.Failed, cause), true
	}
}
