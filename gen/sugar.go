package gen

import "github.com/jepsengo/jepsen/op"

// Start builds a nemesis invoke op with F "start-"+f, e.g.
// Start("partition", nil) has F "start-partition". Wrap it and Stop's op
// in Literal to combine them via Sequence/Stagger (see StartStop).
func Start(f string, value any) op.Op {
	return op.Op{Type: op.Invoke, Process: op.Nemesis, F: "start-" + f, Value: value}
}

// Stop builds a nemesis invoke op with F "stop-"+f that heals fault f,
// e.g. Stop("partition", nil).
func Stop(f string, value any) op.Op {
	return op.Op{Type: op.Invoke, Process: op.Nemesis, F: "stop-" + f, Value: value}
}

// StartStop sequences Start(f, startVal) then Stop(f, stopVal), so a
// nemesis fault is injected then healed as one scripted unit.
func StartStop(f string, startVal, stopVal any) Generator {
	return Sequence(Literal(Start(f, startVal)), Literal(Stop(f, stopVal)))
}
