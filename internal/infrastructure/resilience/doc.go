/*
Package resilience provides a circuit breaker for guarding calls that can
fail repeatedly, such as launching sandbox processes.

# States

	Closed --[FailureThreshold consecutive failures]-> Open
	Open --[Cooldown elapsed]-> Half-Open
	Half-Open --[HalfOpenProbes successes]-> Closed
	Half-Open --[any failure]-> Open

While open, Do returns ErrCircuitOpen without calling fn. While half-open,
at most HalfOpenProbes calls run concurrently; extra calls get
ErrTooManyRequests.

# Usage

	breaker := resilience.New("sandbox", resilience.Settings{
		FailureThreshold: 5,
		Cooldown:         30 * time.Second,
		OnStateChange: func(name string, from, to resilience.State) {
			log.Warn("Breaker state change", zap.String("from", from.String()), zap.String("to", to.String()))
		},
	})

	err := breaker.Do(func() error {
		return launch()
	})
*/
package resilience
