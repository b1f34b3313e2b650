package payload

import "strings"

var weekdays = map[string]bool{
	"monday": true, "tuesday": true, "wednesday": true, "thursday": true,
	"friday": true, "saturday": true, "sunday": true,
}

// Validate checks the set values are non-negative and the id is present.
func (s SetPayload) Validate() error {
	if s.ID == "" {
		return invalid("set id is required")
	}
	if s.Reps != nil && *s.Reps < 0 {
		return invalid("set %s: reps must be non-negative", s.ID)
	}
	if s.Weight != nil && *s.Weight < 0 {
		return invalid("set %s: weight must be non-negative", s.ID)
	}
	if s.Duration != nil && *s.Duration < 0 {
		return invalid("set %s: duration must be non-negative", s.ID)
	}
	return nil
}

// Validate also checks that sec still mirrors duration.
func (s MovementSetPayload) Validate() error {
	if err := s.SetPayload.Validate(); err != nil {
		return err
	}
	switch {
	case s.Duration == nil && s.Sec == nil:
	case s.Duration != nil && s.Sec != nil && *s.Duration == *s.Sec:
	default:
		return invalid("set %s: sec must equal duration", s.ID)
	}
	return nil
}

func (p MovementPayload) Validate() error {
	if p.UserID == "" {
		return invalid("userId is required")
	}
	if p.MovementID == "" {
		return invalid("movementId is required")
	}
	if strings.TrimSpace(p.Movement1Name) == "" {
		return invalid("movement name is required")
	}
	if p.IsSingle && len(p.SecondSectionSets) > 0 {
		return invalid("single movement %q cannot carry second-section sets", p.Movement1Name)
	}
	for _, sets := range [][]MovementSetPayload{p.FirstSectionSets, p.SecondSectionSets, p.WeavedSets} {
		for _, s := range sets {
			if err := s.Validate(); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p SessionPayload) Validate() error {
	if p.UserID == "" {
		return invalid("userId is required")
	}
	if p.SessionID == "" {
		return invalid("sessionId is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		return invalid("session name is required")
	}
	if p.EstimatedDuration != nil && *p.EstimatedDuration < 0 {
		return invalid("estimatedDuration must be non-negative")
	}
	for _, m := range p.Movements {
		if err := m.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (p PlanPayload) Validate() error {
	if p.UserID == "" {
		return invalid("userId is required")
	}
	if p.PlanID == "" {
		return invalid("planId is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		return invalid("plan name is required")
	}
	for slot, id := range p.Sessions {
		if id == "" {
			return invalid("plan slot %q has no session", slot)
		}
		if p.IsDayOfTheWeekPlan && !weekdays[slot] {
			return invalid("plan slot %q is not a weekday", slot)
		}
	}
	return nil
}

func (p SessionLogPayload) Validate() error {
	if p.UserID == "" {
		return invalid("userId is required")
	}
	if p.OriginalSessionID == "" {
		return invalid("originalSessionId is required")
	}
	if p.Duration < 0 {
		return invalid("duration must be non-negative")
	}
	for _, m := range p.Movements {
		for _, s := range m.Sets {
			if err := s.Validate(); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p PlanLogPayload) Validate() error {
	if p.UserID == "" {
		return invalid("userId is required")
	}
	if p.PlanID == "" {
		return invalid("planId is required")
	}
	return nil
}
