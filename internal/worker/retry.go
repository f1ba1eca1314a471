package worker

import (
	"math"
	"math/rand"
	"time"
)

// RetryPolicy — параметры экспоненциальной выдержки между попытками
// сверки корзины. Jitter задает долю случайного разброса, чтобы
// накопившиеся задачи не повторялись синхронно.
type RetryPolicy struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	Jitter        float64
}

// CartSyncRetryPolicy возвращает политику повторов воркера сверки:
// от секунды до пяти минут с удвоением и десятипроцентным разбросом.
func CartSyncRetryPolicy(maxRetries int) RetryPolicy {
	return RetryPolicy{
		MaxRetries:    maxRetries,
		InitialDelay:  time.Second,
		MaxDelay:      5 * time.Minute,
		BackoffFactor: 2,
		Jitter:        0.1,
	}
}

// NextDelay возвращает задержку перед попыткой attempt (нумерация с 1).
func (r RetryPolicy) NextDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if r.InitialDelay <= 0 {
		r.InitialDelay = time.Second
	}
	if r.BackoffFactor <= 0 {
		r.BackoffFactor = 2
	}

	delay := float64(r.InitialDelay) * math.Pow(r.BackoffFactor, float64(attempt-1))
	if r.Jitter > 0 {
		delay += delay * r.Jitter * (2*rand.Float64() - 1)
	}
	d := time.Duration(delay)
	if r.MaxDelay > 0 && d > r.MaxDelay {
		d = r.MaxDelay
	}
	if d <= 0 {
		d = time.Second
	}
	return d
}
