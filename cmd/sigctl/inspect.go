package main

import (
	"fmt"

	"github.com/gopherflux/signals/src/signals"
)

// inspectCommand builds a counter store like runScenario's (with only the
// increment reducer) and dumps the store's diagnostic surface, mirroring
// cyq's "inspect" command shape but
// reporting subscription/source bookkeeping instead of an AST.
func inspectCommand(args []string) error {
	if len(args) != 0 {
		return usageErrorf(2, "Usage: sigctl inspect")
	}

	st := signals.NewStore()
	counter := signals.NewStateId[int]("counter")
	inc := signals.NewEventId[int]("inc")

	signals.AddState(st, counter, 0)
	if err := signals.AddReducer(st, counter, inc, func(c int, by int) int { return c + by }); err != nil {
		return err
	}

	fmt.Printf("isAdded(counter) = %v\n", st.IsAdded(counter.Token))
	fmt.Printf("isSubscribed(counter) = %v\n", st.IsSubscribed(counter.Token))
	fmt.Printf("numberOfBehaviorSources(counter) = %d\n", st.GetNumberOfBehaviorSources(counter.Token))
	fmt.Printf("unsubscribedIdentifiers = %v\n", st.GetUnsubscribedIdentifiers())
	fmt.Printf("noSourceBehaviorIdentifiers = %v\n", st.GetNoSourceBehaviorIdentifiers())

	sub := signals.GetStateBehavior(st, counter).Subscribe(func(int) {}, nil, nil)
	fmt.Printf("after subscribe: isSubscribed(counter) = %v\n", st.IsSubscribed(counter.Token))
	sub.Unsubscribe()
	fmt.Printf("after unsubscribe: isSubscribed(counter) = %v\n", st.IsSubscribed(counter.Token))

	return nil
}
