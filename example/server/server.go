package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/greergan/slimrouter"
)

func main() {
	root := "./public"
	if len(os.Args) > 1 {
		root = os.Args[1]
	}

	router := slimrouter.NewRouter(
		slimrouter.WithRootDirectory(root),
		slimrouter.WithWebSockets(true),
	)
	ctx := context.Background()

	must(router.AddRoute(ctx, slimrouter.NewRoute("/", slimrouter.StaticMount())))

	started := time.Now()
	uptime := slimrouter.NewRoute("/uptime", slimrouter.Callable(func(ctx context.Context) (any, error) {
		return map[string]any{"seconds": int(time.Since(started).Seconds())}, nil
	}))
	uptime.ContentType = "application/json"
	must(router.AddRoute(ctx, uptime))

	must(router.AddRoute(ctx, slimrouter.NewWebSocketRoute("/time",
		func(ctx context.Context, session *slimrouter.Session) error {
			fmt.Println("Session opened", session.ID())
			session.Set("timeState", &TimeState{})
			return nil
		},
		func(ctx context.Context, session *slimrouter.Session, msg *slimrouter.Message) error {
			value, _ := session.Get("timeState")
			timeState := value.(*TimeState)

			switch msg.Text() {
			case "start":
				fmt.Println("Starting time")
				if !timeState.Start() {
					return nil
				}
				go func() {
					for timeState.ShouldSendTime() {
						err := session.Send(ctx, map[string]any{
							"time": time.Now().Unix(),
						})
						if err != nil {
							fmt.Println("Error sending time:", err)
							return
						}
						time.Sleep(1 * time.Second)
					}
				}()
			case "stop":
				fmt.Println("Stopping time")
				timeState.Stop()
			}
			return nil
		},
	)))

	fmt.Println("Starting server on port 8167")
	err := http.ListenAndServe(":8167", router)
	if err != nil {
		fmt.Println("Error starting server:", err)
	}
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

type TimeState struct {
	mx       sync.Mutex
	sendTime bool
}

// Start reports whether sending was off before the call.
func (ts *TimeState) Start() bool {
	ts.mx.Lock()
	defer ts.mx.Unlock()
	wasSending := ts.sendTime
	ts.sendTime = true
	return !wasSending
}

func (ts *TimeState) ShouldSendTime() bool {
	ts.mx.Lock()
	defer ts.mx.Unlock()
	return ts.sendTime
}

func (ts *TimeState) Stop() {
	ts.mx.Lock()
	defer ts.mx.Unlock()
	ts.sendTime = false
}
