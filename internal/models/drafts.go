package models

import "github.com/google/uuid"

// SetRecord is a single performance record tied to a movement.
// Only one of Reps/Duration is authoritative, chosen by the owning movement's IsTimed.
type SetRecord struct {
	ID        string   `json:"id"`
	Reps      *int     `json:"reps,omitempty"`
	Weight    *float64 `json:"weight,omitempty"`
	Duration  *int     `json:"duration,omitempty"`
	Completed bool     `json:"completed"`
}

// NewSetRecord returns an empty set with a fresh id.
func NewSetRecord() SetRecord {
	return SetRecord{ID: uuid.NewString()}
}

// MovementDraft is an exercise definition being edited or tracked.
// PendingID is the id reserved by a create that has not been acknowledged;
// a retry sends it again instead of minting another.
type MovementDraft struct {
	ID               string   `json:"id"`
	PendingID        string   `json:"pendingId,omitempty"`
	Movement1Name    string   `json:"movement1Name"`
	Movement2Name    string   `json:"movement2Name,omitempty"`
	Category         string   `json:"category,omitempty"`
	Difficulty       string   `json:"difficulty,omitempty"`
	Description      string   `json:"description,omitempty"`
	IsSingle         bool     `json:"isSingle"`
	IsTimed          bool     `json:"isTimed"`
	EquipmentsNeeded []string `json:"equipmentsNeeded,omitempty"`
	Tags             []string `json:"tags,omitempty"`

	TemplateSets      []SetRecord `json:"templateSets,omitempty"`
	FirstSectionSets  []SetRecord `json:"firstSectionSets,omitempty"`
	SecondSectionSets []SetRecord `json:"secondSectionSets,omitempty"`
	WeavedSets        []SetRecord `json:"weavedSets,omitempty"`
}

// NewMovementDraft returns a blank single, untimed movement.
// The id stays empty until the first successful save.
func NewMovementDraft() MovementDraft {
	return MovementDraft{IsSingle: true}
}

// DisplayName joins both movement names for supersets.
func (m MovementDraft) DisplayName() string {
	if m.IsSingle || m.Movement2Name == "" {
		return m.Movement1Name
	}
	return m.Movement1Name + " / " + m.Movement2Name
}

// SetCollections returns pointers to the four set slices so callers can rewrite them in place.
func (m *MovementDraft) SetCollections() []*[]SetRecord {
	return []*[]SetRecord{&m.TemplateSets, &m.FirstSectionSets, &m.SecondSectionSets, &m.WeavedSets}
}

// Clone returns a deep copy.
func (m MovementDraft) Clone() MovementDraft {
	c := m
	c.EquipmentsNeeded = cloneStrings(m.EquipmentsNeeded)
	c.Tags = cloneStrings(m.Tags)
	c.TemplateSets = cloneSets(m.TemplateSets)
	c.FirstSectionSets = cloneSets(m.FirstSectionSets)
	c.SecondSectionSets = cloneSets(m.SecondSectionSets)
	c.WeavedSets = cloneSets(m.WeavedSets)
	return c
}

// SessionDraft is a named collection of movements plus scheduling metadata.
// Duration is in minutes; it is persisted as seconds.
type SessionDraft struct {
	ID                 string            `json:"id"`
	PendingID          string            `json:"pendingId,omitempty"`
	Name               string            `json:"name"`
	Description        string            `json:"description,omitempty"`
	Difficulty         string            `json:"difficulty,omitempty"`
	Duration           *int              `json:"duration,omitempty"`
	IsDayOfTheWeekPlan bool              `json:"isDayOfTheWeekPlan,omitempty"`
	EquipmentNeeded    bool              `json:"equipmentNeeded,omitempty"`
	Sessions           map[string]string `json:"sessions,omitempty"`
	MovementsInSession []MovementDraft   `json:"movementsInSession"`
}

// NewSessionDraft returns a blank session with no id.
func NewSessionDraft() SessionDraft {
	return SessionDraft{}
}

// IsEdit reports whether saving this draft updates an existing record.
func (s SessionDraft) IsEdit() bool {
	return s.ID != ""
}

// Clone returns a deep copy.
func (s SessionDraft) Clone() SessionDraft {
	c := s
	if s.Duration != nil {
		d := *s.Duration
		c.Duration = &d
	}
	if s.Sessions != nil {
		c.Sessions = make(map[string]string, len(s.Sessions))
		for k, v := range s.Sessions {
			c.Sessions[k] = v
		}
	}
	c.MovementsInSession = make([]MovementDraft, len(s.MovementsInSession))
	for i, m := range s.MovementsInSession {
		c.MovementsInSession[i] = m.Clone()
	}
	return c
}

// PlanDraft schedules sessions into slots. Sessions maps a slot
// (a weekday name when IsDayOfTheWeekPlan, otherwise "day1", "day2", ...) to a session id.
type PlanDraft struct {
	ID                 string            `json:"id"`
	PendingID          string            `json:"pendingId,omitempty"`
	Name               string            `json:"name"`
	Description        string            `json:"description,omitempty"`
	Difficulty         string            `json:"difficulty,omitempty"`
	IsDayOfTheWeekPlan bool              `json:"isDayOfTheWeekPlan"`
	EquipmentNeeded    bool              `json:"equipmentNeeded"`
	Sessions           map[string]string `json:"sessions"`
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneSets(in []SetRecord) []SetRecord {
	if in == nil {
		return nil
	}
	out := make([]SetRecord, len(in))
	for i, s := range in {
		out[i] = s.Clone()
	}
	return out
}

// Clone returns a copy that shares no pointers with s.
func (s SetRecord) Clone() SetRecord {
	c := s
	if s.Reps != nil {
		v := *s.Reps
		c.Reps = &v
	}
	if s.Weight != nil {
		v := *s.Weight
		c.Weight = &v
	}
	if s.Duration != nil {
		v := *s.Duration
		c.Duration = &v
	}
	return c
}
