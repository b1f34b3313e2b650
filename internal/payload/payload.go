// Package payload flattens drafts and tracking results into the structured
// payloads sent to the workout-data service. Create and update share the
// same serializer so the two call sites cannot drift.
//
// Wire schema:
//
//	set           {id, reps?, weight?, duration?}
//	movement set  {id, reps?, weight?, duration?, sec?}   sec duplicates duration
//	movement      {userId, movementId, movement1Name, movement2Name?, isSingle, isTimed,
//	               category?, difficulty?, equipmentsNeeded, description?, tags,
//	               firstSectionSets, secondSectionSets, weavedSets}
//	session       {userId, sessionId, name, description?, movements, difficulty?, estimatedDuration?}
//	plan          {userId, planId, name, description?, sessions, isDayOfTheWeekPlan, difficulty?, equipmentNeeded}
//	session log   {userId, originalSessionId, duration, totalVolume?, totalSets?, totalReps?,
//	               totalWeight?, completed, calories?, notes?}
package payload

import (
	"fmt"
	"strings"

	"github.com/meltforce/gymtrack/internal/apperrors"
	"github.com/meltforce/gymtrack/internal/models"
)

// SetPayload is the transport form of a SetRecord.
type SetPayload struct {
	ID       string   `json:"id"`
	Reps     *int     `json:"reps,omitempty"`
	Weight   *float64 `json:"weight,omitempty"`
	Duration *int     `json:"duration,omitempty"`
}

// MovementSetPayload is a set inside a movement payload. Sec mirrors Duration
// for older consumers and must stay byte-identical to it.
type MovementSetPayload struct {
	SetPayload
	Sec *int `json:"sec,omitempty"`
}

type MovementPayload struct {
	UserID            string               `json:"userId"`
	MovementID        string               `json:"movementId"`
	Movement1Name     string               `json:"movement1Name"`
	Movement2Name     string               `json:"movement2Name,omitempty"`
	IsSingle          bool                 `json:"isSingle"`
	IsTimed           bool                 `json:"isTimed"`
	Category          string               `json:"category,omitempty"`
	Difficulty        string               `json:"difficulty,omitempty"`
	EquipmentsNeeded  bool                 `json:"equipmentsNeeded"`
	Description       string               `json:"description,omitempty"`
	Tags              []string             `json:"tags"`
	FirstSectionSets  []MovementSetPayload `json:"firstSectionSets"`
	SecondSectionSets []MovementSetPayload `json:"secondSectionSets"`
	WeavedSets        []MovementSetPayload `json:"weavedSets"`
}

type SessionPayload struct {
	UserID            string            `json:"userId"`
	SessionID         string            `json:"sessionId"`
	Name              string            `json:"name"`
	Description       string            `json:"description,omitempty"`
	Movements         []MovementPayload `json:"movements"`
	Difficulty        string            `json:"difficulty,omitempty"`
	EstimatedDuration *int              `json:"estimatedDuration,omitempty"`
}

type PlanPayload struct {
	UserID             string            `json:"userId"`
	PlanID             string            `json:"planId"`
	Name               string            `json:"name"`
	Description        string            `json:"description,omitempty"`
	Sessions           map[string]string `json:"sessions"`
	IsDayOfTheWeekPlan bool              `json:"isDayOfTheWeekPlan"`
	Difficulty         string            `json:"difficulty,omitempty"`
	EquipmentNeeded    bool              `json:"equipmentNeeded"`
}

// SessionLogPayload is a finished workout. Movements and HeartRate are
// extensions; older consumers ignore them.
type SessionLogPayload struct {
	UserID            string                   `json:"userId"`
	OriginalSessionID string                   `json:"originalSessionId"`
	SessionName       string                   `json:"sessionName,omitempty"`
	Duration          int                      `json:"duration"`
	TotalVolume       *float64                 `json:"totalVolume,omitempty"`
	TotalSets         *int                     `json:"totalSets,omitempty"`
	TotalReps         *int                     `json:"totalReps,omitempty"`
	TotalWeight       *float64                 `json:"totalWeight,omitempty"`
	Completed         bool                     `json:"completed"`
	Calories          *float64                 `json:"calories,omitempty"`
	Notes             string                   `json:"notes,omitempty"`
	Movements         []MovementLogPayload     `json:"movements,omitempty"`
	HeartRate         []models.HeartRateSample `json:"heartRate,omitempty"`
}

// MovementLogPayload carries the completed sets attributed to one movement.
type MovementLogPayload struct {
	MovementID   string       `json:"movementId"`
	MovementName string       `json:"movementName"`
	Sets         []SetPayload `json:"sets"`
}

// PlanLogPayload marks a plan slot as done.
type PlanLogPayload struct {
	UserID string `json:"userId"`
	PlanID string `json:"planId"`
	Slot   string `json:"slot,omitempty"`
}

// Set flattens a set record.
func Set(s models.SetRecord) SetPayload {
	return SetPayload{
		ID:       s.ID,
		Reps:     copyInt(s.Reps),
		Weight:   copyFloat(s.Weight),
		Duration: copyInt(s.Duration),
	}
}

// MovementSet flattens a set record for a movement payload, duplicating duration into sec.
func MovementSet(s models.SetRecord) MovementSetPayload {
	return MovementSetPayload{SetPayload: Set(s), Sec: copyInt(s.Duration)}
}

func movementSets(in []models.SetRecord) []MovementSetPayload {
	out := make([]MovementSetPayload, 0, len(in))
	for _, s := range in {
		out = append(out, MovementSet(s))
	}
	return out
}

// Movement flattens a movement draft. Movement2Name and second-section sets
// are dropped for single movements.
func Movement(userID string, m models.MovementDraft) MovementPayload {
	p := MovementPayload{
		UserID:            userID,
		MovementID:        m.ID,
		Movement1Name:     strings.TrimSpace(m.Movement1Name),
		IsSingle:          m.IsSingle,
		IsTimed:           m.IsTimed,
		Category:          m.Category,
		Difficulty:        m.Difficulty,
		EquipmentsNeeded:  len(m.EquipmentsNeeded) > 0,
		Description:       m.Description,
		Tags:              append([]string{}, m.Tags...),
		FirstSectionSets:  movementSets(m.FirstSectionSets),
		SecondSectionSets: []MovementSetPayload{},
		WeavedSets:        movementSets(m.WeavedSets),
	}
	if !m.IsSingle {
		p.Movement2Name = strings.TrimSpace(m.Movement2Name)
		p.SecondSectionSets = movementSets(m.SecondSectionSets)
	}
	return p
}

// Session flattens a session draft, converting its duration from minutes to seconds.
func Session(userID string, s models.SessionDraft) SessionPayload {
	p := SessionPayload{
		UserID:      userID,
		SessionID:   s.ID,
		Name:        strings.TrimSpace(s.Name),
		Description: s.Description,
		Difficulty:  s.Difficulty,
		Movements:   make([]MovementPayload, 0, len(s.MovementsInSession)),
	}
	for _, m := range s.MovementsInSession {
		p.Movements = append(p.Movements, Movement(userID, m))
	}
	if s.Duration != nil {
		secs := *s.Duration * 60
		p.EstimatedDuration = &secs
	}
	return p
}

func Plan(userID string, pl models.PlanDraft) PlanPayload {
	sessions := make(map[string]string, len(pl.Sessions))
	for slot, id := range pl.Sessions {
		sessions[slot] = id
	}
	return PlanPayload{
		UserID:             userID,
		PlanID:             pl.ID,
		Name:               strings.TrimSpace(pl.Name),
		Description:        pl.Description,
		Sessions:           sessions,
		IsDayOfTheWeekPlan: pl.IsDayOfTheWeekPlan,
		Difficulty:         pl.Difficulty,
		EquipmentNeeded:    pl.EquipmentNeeded,
	}
}

// ToMovementDraft rebuilds a draft from its stored payload. Template sets are
// not part of the wire schema and come back empty.
func ToMovementDraft(p MovementPayload) models.MovementDraft {
	m := models.MovementDraft{
		ID:                p.MovementID,
		Movement1Name:     p.Movement1Name,
		Movement2Name:     p.Movement2Name,
		Category:          p.Category,
		Difficulty:        p.Difficulty,
		Description:       p.Description,
		IsSingle:          p.IsSingle,
		IsTimed:           p.IsTimed,
		Tags:              append([]string(nil), p.Tags...),
		FirstSectionSets:  toSetRecords(p.FirstSectionSets),
		SecondSectionSets: toSetRecords(p.SecondSectionSets),
		WeavedSets:        toSetRecords(p.WeavedSets),
	}
	return m
}

// ToSessionDraft rebuilds a session draft, converting seconds back to minutes.
func ToSessionDraft(p SessionPayload) models.SessionDraft {
	s := models.SessionDraft{
		ID:                 p.SessionID,
		Name:               p.Name,
		Description:        p.Description,
		Difficulty:         p.Difficulty,
		MovementsInSession: make([]models.MovementDraft, 0, len(p.Movements)),
	}
	for _, m := range p.Movements {
		s.MovementsInSession = append(s.MovementsInSession, ToMovementDraft(m))
	}
	if p.EstimatedDuration != nil {
		mins := *p.EstimatedDuration / 60
		s.Duration = &mins
	}
	return s
}

func toSetRecords(in []MovementSetPayload) []models.SetRecord {
	if len(in) == 0 {
		return nil
	}
	out := make([]models.SetRecord, 0, len(in))
	for _, s := range in {
		dur := copyInt(s.Duration)
		if dur == nil {
			dur = copyInt(s.Sec)
		}
		out = append(out, models.SetRecord{
			ID:       s.ID,
			Reps:     copyInt(s.Reps),
			Weight:   copyFloat(s.Weight),
			Duration: dur,
		})
	}
	return out
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", apperrors.ErrValidation, fmt.Sprintf(format, args...))
}
