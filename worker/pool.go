package worker

import (
	"github.com/rs/zerolog"

	"github.com/jepsengo/jepsen/sched"
)

// Pool is a worker set plus the completion channel every member reports
// on, built together so an Interpreter is guaranteed to observe every
// worker's completions on the channel it polls.
type Pool struct {
	Workers    map[sched.Thread]*Worker
	Completion chan Completion
}

// NewPool builds one Worker per client thread (0..concurrency-1), bound
// to nodes by index (wrapping if len(nodes) < concurrency), plus one
// nemesis Worker on the dedicated nemesis thread.
func NewPool(concurrency int, nodes []string, openClient func(node string) (Client, error), nemesis Nemesis, log zerolog.Logger) *Pool {
	completion := make(chan Completion, concurrency+1)
	workers := make(map[sched.Thread]*Worker, concurrency+1)

	for i := 0; i < concurrency; i++ {
		th := sched.Thread(i)
		node := ""
		if len(nodes) > 0 {
			node = nodes[i%len(nodes)]
		}
		workers[th] = New(th, node, openClient, completion, log)
	}

	nemesisThread := sched.NemesisThread(concurrency)
	workers[nemesisThread] = NewNemesis(nemesisThread, nemesis, completion, log)

	return &Pool{Workers: workers, Completion: completion}
}
