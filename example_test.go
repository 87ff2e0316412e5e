package cml_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/concurrentml/go-cml"
)

// Example_channelRendezvous demonstrates a synchronous send/receive pair
// over a Channel.
func Example_channelRendezvous() {
	ch := cml.NewChannel[int]()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = ch.Send(context.Background(), 7)
	}()

	v, err := ch.Recv(context.Background())
	if err != nil {
		fmt.Println("recv failed:", err)
		return
	}
	wg.Wait()
	fmt.Println(v)

	// Output:
	// 7
}

// Example_choose demonstrates selective communication between a Channel
// receive and a Timeout, picking whichever becomes ready first.
func Example_choose() {
	ch := cml.NewChannel[string]()

	evt := cml.Choose(
		cml.Wrap(ch.RecvEvt(), func(v string) string { return "got: " + v }),
		cml.Wrap(cml.Timeout(10*time.Millisecond), func(struct{}) string { return "timeout" }),
	)

	result, err := cml.Sync(context.Background(), evt)
	if err != nil {
		fmt.Println("sync failed:", err)
		return
	}
	fmt.Println(result)

	// Output:
	// timeout
}
