package main

import (
	"fmt"
	"time"

	"github.com/gopherflux/signals/src/signals"
)

// runScenario wires a small counter store — an addState/addReducer pair
// driven by dispatched increment/decrement events — and prints every
// observed value, the way a reader would step through scenario S1.
func runScenario(args []string) error {
	if len(args) != 0 {
		return usageErrorf(2, "Usage: sigctl scenario")
	}

	st := signals.NewStore()
	counter := signals.NewStateId[int]("counter")
	inc := signals.NewEventId[int]("inc")
	dec := signals.NewEventId[int]("dec")

	signals.AddState(st, counter, 0)
	if err := signals.AddReducer(st, counter, inc, func(c int, by int) int { return c + by }); err != nil {
		return err
	}
	if err := signals.AddReducer(st, counter, dec, func(c int, by int) int { return c - by }); err != nil {
		return err
	}

	var observed []int
	signals.GetStateBehavior(st, counter).Subscribe(func(v int) {
		observed = append(observed, v)
	}, nil, nil)

	<-signals.Dispatch(st, inc, 7)
	<-signals.Dispatch(st, dec, 5)
	<-signals.Dispatch(st, inc, 10)

	time.Sleep(10 * time.Millisecond)

	fmt.Printf("observed counter values: %v\n", observed)
	return nil
}
