package statemachine

import (
	"errors"
	"strings"

	"restaurant-crm-api/models"
)

// ErrWrongStatus is returned for any requested status outside the allowed set
var ErrWrongStatus = errors.New("wrong status")

// Transition defines a valid lead status change
type Transition struct {
	From models.LeadStatus `json:"from"`
	To   models.LeadStatus `json:"to"`
}

// validTransitions is the authoritative state machine definition.
// done and cancelled may be re-applied, so setting a status is idempotent.
var validTransitions = []Transition{
	{From: models.LeadOpen, To: models.LeadDone},
	{From: models.LeadOpen, To: models.LeadCancelled},
	{From: models.LeadDone, To: models.LeadDone},
	{From: models.LeadDone, To: models.LeadCancelled},
	{From: models.LeadCancelled, To: models.LeadCancelled},
	{From: models.LeadCancelled, To: models.LeadDone},
}

type transitionKey struct {
	From models.LeadStatus
	To   models.LeadStatus
}

var transitionMap = func() map[transitionKey]bool {
	m := make(map[transitionKey]bool)
	for _, t := range validTransitions {
		m[transitionKey{t.From, t.To}] = true
	}
	return m
}()

// targets are the statuses a caller may ask for
var targets = func() map[models.LeadStatus]bool {
	m := make(map[models.LeadStatus]bool)
	for _, t := range validTransitions {
		m[t.To] = true
	}
	return m
}()

// ParseStatus normalizes a requested status and rejects anything but done/cancelled
func ParseStatus(raw string) (models.LeadStatus, error) {
	status := models.LeadStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !targets[status] {
		return "", ErrWrongStatus
	}
	return status, nil
}

// ValidTransitionsFrom returns all valid next states from a given state
func ValidTransitionsFrom(status models.LeadStatus) []models.LeadStatus {
	var nexts []models.LeadStatus
	for _, t := range validTransitions {
		if t.From == normalizeFrom(status) {
			nexts = append(nexts, t.To)
		}
	}
	return nexts
}

// CanTransition checks if a lead may move from one state to another
func CanTransition(from, to models.LeadStatus) error {
	if transitionMap[transitionKey{From: normalizeFrom(from), To: to}] {
		return nil
	}
	return errors.New(
		"invalid transition: " + string(from) + " → " + string(to) +
			". Valid transitions from " + string(from) + " are: " + describeValidFrom(from),
	)
}

// rows written before the default existed carry an empty status
func normalizeFrom(status models.LeadStatus) models.LeadStatus {
	if status == "" {
		return models.LeadOpen
	}
	return status
}

func describeValidFrom(status models.LeadStatus) string {
	nexts := ValidTransitionsFrom(status)
	if len(nexts) == 0 {
		return "none"
	}
	parts := make([]string, len(nexts))
	for i, s := range nexts {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}

// GetAllTransitions returns the full state machine for documentation
func GetAllTransitions() []Transition {
	return validTransitions
}
