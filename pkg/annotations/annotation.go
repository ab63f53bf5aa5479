// Package annotations manages the soccer event labels recorded against
// a video, stored in a sidecar JSON file next to it.
package annotations

import (
	"errors"
	"strconv"
)

// Label is one of the predefined soccer event labels.
type Label string

const (
	LabelGoal                         Label = "GOAL"
	LabelCorner                       Label = "CORNER"
	LabelFreeKick                     Label = "FREE KICK"
	LabelBallRecoveryAndCounterAttack Label = "BALL RECOVERY AND COUNTER ATTACK"
	LabelBuildUpPlay                  Label = "BUILD-UP PLAY"
	LabelPositionalAttack             Label = "POSITIONAL ATTACK"
	LabelSwitchingPlay                Label = "SWITCHING PLAY"
	LabelNoHighlight                  Label = "NO HIGHLIGHT"
)

// Labels returns the full label vocabulary in its canonical order.
func Labels() []Label {
	return []Label{
		LabelGoal,
		LabelCorner,
		LabelFreeKick,
		LabelBallRecoveryAndCounterAttack,
		LabelBuildUpPlay,
		LabelPositionalAttack,
		LabelSwitchingPlay,
		LabelNoHighlight,
	}
}

// ValidLabel reports whether l is part of the vocabulary.
func ValidLabel(l Label) bool {
	for _, known := range Labels() {
		if l == known {
			return true
		}
	}
	return false
}

// Team identifies which side an annotation belongs to.
type Team string

const (
	TeamHome Team = "home"
	TeamAway Team = "away"
)

// ValidTeam reports whether t is a known team.
func ValidTeam(t Team) bool {
	return t == TeamHome || t == TeamAway
}

var (
	// ErrUnknownLabel is returned when a label is not in the vocabulary.
	ErrUnknownLabel = errors.New("annotations: unknown label")

	// ErrUnknownTeam is returned when a team is neither home nor away.
	ErrUnknownTeam = errors.New("annotations: unknown team")

	// ErrIndexOutOfRange is returned by RemoveAt and UpdateAt for
	// indexes outside the stored annotations.
	ErrIndexOutOfRange = errors.New("annotations: index out of range")
)

// Annotation is one recorded event. The field order matches the sidecar
// JSON layout.
type Annotation struct {
	GameTime   string `json:"gameTime"`
	Label      Label  `json:"label"`
	Position   string `json:"position"`
	Team       Team   `json:"team"`
	Visibility string `json:"visibility"`
}

// PositionMs returns the position as integral milliseconds. Annotations
// store it as a string in the sidecar format.
func (a Annotation) PositionMs() int {
	ms, err := strconv.Atoi(a.Position)
	if err != nil {
		return 0
	}
	return ms
}
