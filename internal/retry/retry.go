// Package retry выполняет операцию с ограниченным числом попыток и
// экспоненциальной задержкой между ними.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jpillora/backoff"
)

// Classifier решает, стоит ли повторять операцию после ошибки.
type Classifier func(err error) bool

// Always повторяет при любой ошибке.
func Always(error) bool { return true }

// Attempt описывает одну завершённую попытку.
type Attempt struct {
	Number   int // с единицы
	Duration time.Duration
	Err      error
	// Delay — пауза перед следующей попыткой; 0, если попыток больше не будет.
	Delay time.Duration
}

// Observer получает уведомление после каждой попытки.
type Observer func(Attempt)

// SleepFunc ждёт d или отмены ctx.
type SleepFunc func(ctx context.Context, d time.Duration) error

// ExhaustedError возвращается, когда все попытки завершились ошибкой.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

// Policy — параметры повторов. MaxAttempts == 1 означает одну попытку без повторов.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration

	Classifier Classifier
	Observer   Observer
	Sleep      SleepFunc
}

// Validate проверяет MaxAttempts >= 1 и BaseDelay >= 0.
func (p Policy) Validate() error {
	if p.MaxAttempts < 1 {
		return errors.New("retry: max attempts must be at least 1")
	}
	if p.BaseDelay < 0 {
		return errors.New("retry: base delay must not be negative")
	}
	return nil
}

// Delay возвращает паузу после попытки с индексом attempt (с нуля): BaseDelay * 2^attempt.
func (p Policy) Delay(attempt int) time.Duration {
	if p.BaseDelay <= 0 {
		return 0
	}
	b := &backoff.Backoff{
		Min:    p.BaseDelay,
		Max:    time.Duration(math.MaxInt64),
		Factor: 2,
	}
	return b.ForAttempt(float64(attempt))
}

// Do выполняет op до p.MaxAttempts раз. Возвращает первый успешный результат,
// ошибку, которую Classifier счёл неповторяемой, либо *ExhaustedError.
// Отмена ctx прерывает только ожидание между попытками.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	classify := p.Classifier
	if classify == nil {
		classify = Always
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = Sleep
	}

	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		start := time.Now()
		res, err := op(ctx)
		a := Attempt{Number: i + 1, Duration: time.Since(start), Err: err}
		if err == nil {
			notify(p.Observer, a)
			return res, nil
		}
		lastErr = err

		if !classify(err) {
			notify(p.Observer, a)
			return zero, err
		}
		if i < maxAttempts-1 {
			a.Delay = p.Delay(i)
		}
		notify(p.Observer, a)

		if a.Delay > 0 {
			if serr := sleep(ctx, a.Delay); serr != nil {
				return zero, &ExhaustedError{Attempts: i + 1, Err: lastErr}
			}
		}
	}
	return zero, &ExhaustedError{Attempts: maxAttempts, Err: lastErr}
}

func notify(o Observer, a Attempt) {
	if o != nil {
		o(a)
	}
}

// Sleep — SleepFunc по таймеру.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
