package ai

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
)

var (
	ErrEmptyMessage = errors.New("message is empty")
	ErrEmptyAdvice  = errors.New("advisor returned empty advice")
)

// Advisor answers one traveller question.
type Advisor interface {
	Advise(ctx context.Context, message string) (string, error)
}

// Chain tries each advisor in order and returns the first answer.
type Chain []Advisor

func (c Chain) Advise(ctx context.Context, message string) (string, error) {
	var errs []error
	for i, advisor := range c {
		advice, err := advisor.Advise(ctx, message)
		if err == nil {
			return advice, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		log.Warn().Err(err).Int("advisor", i).Msg("advisor failed, trying next")
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return "", errors.New("no advisor configured")
	}
	return "", errors.Join(errs...)
}

type timeoutAdvisor struct {
	next    Advisor
	timeout time.Duration
}

// WithTimeout bounds each call to next by d, so a Chain still has time left
// for the advisors after it. d <= 0 returns next unchanged.
func WithTimeout(next Advisor, d time.Duration) Advisor {
	if d <= 0 {
		return next
	}
	return timeoutAdvisor{next: next, timeout: d}
}

func (t timeoutAdvisor) Advise(ctx context.Context, message string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.Advise(ctx, message)
}
