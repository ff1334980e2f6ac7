package domain

// State is the whole tracker state. Completed keeps insertion order and the
// in-progress fast, when there is one, lives only in Active.
type State struct {
	Completed []CompletedFast
	Active    *ActiveFast
	Settings  Settings
}

func NewState() State {
	return State{Settings: DefaultSettings()}
}

func (s State) Clone() State {
	out := State{
		Completed: append([]CompletedFast(nil), s.Completed...),
		Settings:  s.Settings.Clone(),
	}
	if s.Active != nil {
		active := *s.Active
		out.Active = &active
	}
	return out
}

func (s State) Current() (ActiveFast, bool) {
	if s.Active == nil {
		return ActiveFast{}, false
	}
	return *s.Active, true
}

func (s State) FastCount() int {
	if s.Active != nil {
		return len(s.Completed) + 1
	}
	return len(s.Completed)
}

func (s State) completedIndex(id string) int {
	for i, f := range s.Completed {
		if f.ID == id {
			return i
		}
	}
	return -1
}

// LatestCompleted is the completed fast with the greatest EndAt. Ties go to
// the later entry.
func (s State) LatestCompleted() (CompletedFast, bool) {
	var latest CompletedFast
	found := false
	for _, f := range s.Completed {
		if !found || !f.EndAt.Before(latest.EndAt) {
			latest = f
			found = true
		}
	}
	return latest, found
}
