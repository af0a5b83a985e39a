package pipeline

// State is a step of the run.
type State int

// States in the order a run moves through them.
const (
	StateInit State = iota
	StateRendering
	StateExtracting
	StatePulling
	StateScanning
	StateRecording
	StateAggregating
	StateDone
	StateFatal
)

var stateNames = map[State]string{
	StateInit:        "init",
	StateRendering:   "rendering",
	StateExtracting:  "extracting",
	StatePulling:     "pulling",
	StateScanning:    "scanning",
	StateRecording:   "recording",
	StateAggregating: "aggregating",
	StateDone:        "done",
	StateFatal:       "fatal",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}
