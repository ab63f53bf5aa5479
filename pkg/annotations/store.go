package annotations

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/user/replay/pkg/ports"
)

// DefaultToleranceMs is the matching window used by At.
const DefaultToleranceMs = 500

// SidecarPath returns the annotation file path for a video: the video
// path with its extension replaced by "_Labels.json".
func SidecarPath(videoPath string) string {
	dir := filepath.Dir(videoPath)
	base := strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath))
	return filepath.Join(dir, base+"_Labels.json")
}

// Store holds the annotations of one video and keeps the sidecar file
// in sync after every mutation.
type Store struct {
	fs          ports.FileSystem
	log         ports.Logger
	path        string
	annotations []Annotation
}

// Open loads the sidecar for videoPath, creating an empty one when none
// exists yet. An unreadable sidecar is reported and treated as empty,
// so a torn file never blocks playback.
func Open(fs ports.FileSystem, log ports.Logger, videoPath string) (*Store, error) {
	s := &Store{
		fs:   fs,
		log:  log.WithComponent("annotations"),
		path: SidecarPath(videoPath),
	}

	exists, err := fs.Exists(s.path)
	if err != nil {
		return nil, fmt.Errorf("check sidecar: %w", err)
	}
	if !exists {
		if err := s.Save(); err != nil {
			return nil, err
		}
		return s, nil
	}
	if err := s.Load(); err != nil {
		s.log.Warn("Could not read annotations from %s: %v", s.path, err)
		s.annotations = nil
	}
	return s, nil
}

// Path returns the sidecar file path.
func (s *Store) Path() string {
	return s.path
}

// Count returns the number of stored annotations.
func (s *Store) Count() int {
	return len(s.annotations)
}

// Add validates and appends an annotation at positionMs, then saves.
func (s *Store) Add(positionMs int, label Label, team Team) (Annotation, error) {
	if !ValidLabel(label) {
		return Annotation{}, fmt.Errorf("%w: %q", ErrUnknownLabel, label)
	}
	if !ValidTeam(team) {
		return Annotation{}, fmt.Errorf("%w: %q", ErrUnknownTeam, team)
	}

	a := Annotation{
		GameTime:   FormatGameTime(positionMs),
		Label:      label,
		Position:   strconv.Itoa(positionMs),
		Team:       team,
		Visibility: "visible",
	}
	s.annotations = append(s.annotations, a)
	if err := s.Save(); err != nil {
		return Annotation{}, err
	}
	return a, nil
}

// RemoveAt removes the annotation at index and saves.
func (s *Store) RemoveAt(index int) (Annotation, error) {
	if index < 0 || index >= len(s.annotations) {
		return Annotation{}, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	removed := s.annotations[index]
	s.annotations = append(s.annotations[:index], s.annotations[index+1:]...)
	if err := s.Save(); err != nil {
		return Annotation{}, err
	}
	return removed, nil
}

// Update describes a partial change to an annotation. Nil fields keep
// the current value.
type Update struct {
	PositionMs *int
	Label      *Label
	Team       *Team
}

// UpdateAt applies a partial update to the annotation at index and
// saves. A position change refreshes the game time.
func (s *Store) UpdateAt(index int, u Update) (Annotation, error) {
	if index < 0 || index >= len(s.annotations) {
		return Annotation{}, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}

	if u.Label != nil && !ValidLabel(*u.Label) {
		return Annotation{}, fmt.Errorf("%w: %q", ErrUnknownLabel, *u.Label)
	}
	if u.Team != nil && !ValidTeam(*u.Team) {
		return Annotation{}, fmt.Errorf("%w: %q", ErrUnknownTeam, *u.Team)
	}

	a := &s.annotations[index]
	if u.Label != nil {
		a.Label = *u.Label
	}
	if u.Team != nil {
		a.Team = *u.Team
	}
	if u.PositionMs != nil {
		a.Position = strconv.Itoa(*u.PositionMs)
		a.GameTime = FormatGameTime(*u.PositionMs)
	}
	if err := s.Save(); err != nil {
		return Annotation{}, err
	}
	return *a, nil
}

// All returns the annotations sorted ascending by position.
func (s *Store) All() []Annotation {
	out := make([]Annotation, len(s.annotations))
	copy(out, s.annotations)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PositionMs() < out[j].PositionMs()
	})
	return out
}

// At returns the annotations within the default tolerance of positionMs.
func (s *Store) At(positionMs int) []Annotation {
	return s.AtWithin(positionMs, DefaultToleranceMs)
}

// AtWithin returns the annotations within toleranceMs of positionMs, in
// stored order.
func (s *Store) AtWithin(positionMs, toleranceMs int) []Annotation {
	var matches []Annotation
	for _, a := range s.annotations {
		d := a.PositionMs() - positionMs
		if d < 0 {
			d = -d
		}
		if d <= toleranceMs {
			matches = append(matches, a)
		}
	}
	return matches
}

// sidecarFile is the JSON document shape of the sidecar.
type sidecarFile struct {
	Annotations []Annotation `json:"annotations"`
}

// Load replaces the in-memory annotations with the sidecar contents.
func (s *Store) Load() error {
	data, err := s.fs.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("read %s: %w", s.path, err)
	}
	var doc sidecarFile
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse %s: %w", s.path, err)
	}
	s.annotations = doc.Annotations
	return nil
}

// Save writes the in-memory annotations to the sidecar. An empty store
// writes an empty list, never null.
func (s *Store) Save() error {
	doc := sidecarFile{Annotations: s.annotations}
	if doc.Annotations == nil {
		doc.Annotations = []Annotation{}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode annotations: %w", err)
	}
	if err := s.fs.WriteFile(s.path, data); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	return nil
}
