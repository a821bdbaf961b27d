package sequencer

// State is the set of readouts the UI displays. None of it is needed for
// the core to work.
type State struct {
	Tempo   int  `json:"tempo"`
	Swing   int  `json:"swing"`
	Step    int  `json:"step"`
	Playing bool `json:"playing"`
}
