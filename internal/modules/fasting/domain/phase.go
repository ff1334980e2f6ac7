package domain

type Phase struct {
	Hours float64
	Label string
	Icon  string
}

// Phases is ordered by ascending threshold.
var Phases = []Phase{
	{Hours: 3, Label: "Blood Sugar Drop", Icon: "💧"},
	{Hours: 5, Label: "Gluconeogenesis", Icon: "🧬"},
	{Hours: 8, Label: "Ketosis", Icon: "🔥"},
	{Hours: 12, Label: "Fat Burning", Icon: "⚡"},
	{Hours: 18, Label: "Autophagy", Icon: "🧹"},
}

// CurrentPhase returns the last phase whose threshold is at or below hours.
func CurrentPhase(hours float64) (Phase, bool) {
	var current Phase
	found := false
	for _, p := range Phases {
		if p.Hours > hours {
			break
		}
		current = p
		found = true
	}
	return current, found
}

type PhaseStatus struct {
	Phase
	Reached bool
	Current bool
}

func PhaseStatuses(hours float64) []PhaseStatus {
	current, ok := CurrentPhase(hours)
	out := make([]PhaseStatus, 0, len(Phases))
	for _, p := range Phases {
		out = append(out, PhaseStatus{
			Phase:   p,
			Reached: p.Hours <= hours,
			Current: ok && p.Hours == current.Hours,
		})
	}
	return out
}

// NextPhase returns the first phase not yet reached.
func NextPhase(hours float64) (Phase, bool) {
	for _, p := range Phases {
		if p.Hours > hours {
			return p, true
		}
	}
	return Phase{}, false
}
