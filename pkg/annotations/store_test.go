package annotations

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/user/replay/pkg/adapters/logger"
	"github.com/user/replay/pkg/mocks"
)

func TestSidecarPath(t *testing.T) {
	cases := []struct {
		video string
		want  string
	}{
		{"/videos/match.mp4", "/videos/match_Labels.json"},
		{"/videos/clip.backup.avi", "/videos/clip.backup_Labels.json"},
		{"match.mkv", "match_Labels.json"},
		{"/videos/match", "/videos/match_Labels.json"},
	}
	for _, c := range cases {
		if got := SidecarPath(c.video); got != c.want {
			t.Errorf("SidecarPath(%q): expected %q, got %q", c.video, c.want, got)
		}
	}
}

func openTestStore(t *testing.T, fs *mocks.FileSystem) *Store {
	t.Helper()
	s, err := Open(fs, logger.NewNoop(), "/videos/match.mp4")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return s
}

func sidecarDoc(t *testing.T, fs *mocks.FileSystem) sidecarFile {
	t.Helper()
	data, ok := fs.File("/videos/match_Labels.json")
	if !ok {
		t.Fatalf("sidecar file was not written")
	}
	var doc sidecarFile
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("parse sidecar: %v", err)
	}
	return doc
}

func TestOpen_CreatesEmptySidecar(t *testing.T) {
	fs := mocks.NewFileSystem()
	s := openTestStore(t, fs)

	if s.Count() != 0 {
		t.Errorf("expected empty store, got %d annotations", s.Count())
	}
	data, ok := fs.File("/videos/match_Labels.json")
	if !ok {
		t.Fatalf("expected sidecar to be created on open")
	}
	if !strings.Contains(string(data), `"annotations": []`) {
		t.Errorf("expected empty list, got %s", data)
	}
}

func TestOpen_LoadsExistingSidecar(t *testing.T) {
	fs := mocks.NewFileSystem()
	fs.SeedFile("/videos/match_Labels.json", []byte(`{
		"annotations": [
			{"gameTime": "1 - 00:10", "label": "GOAL", "position": "10000", "team": "home", "visibility": "visible"},
			{"gameTime": "1 - 00:20", "label": "CORNER", "position": "20000", "team": "away", "visibility": "visible"}
		]
	}`))

	s := openTestStore(t, fs)
	if s.Count() != 2 {
		t.Fatalf("expected 2 annotations, got %d", s.Count())
	}
	if fs.WriteCount() != 0 {
		t.Errorf("open of an existing sidecar must not rewrite it")
	}
}

func TestOpen_CorruptSidecarStartsEmpty(t *testing.T) {
	fs := mocks.NewFileSystem()
	fs.SeedFile("/videos/match_Labels.json", []byte("{torn"))

	s := openTestStore(t, fs)
	if s.Count() != 0 {
		t.Errorf("expected empty store for a corrupt sidecar, got %d", s.Count())
	}
	if fs.WriteCount() != 0 {
		t.Errorf("a corrupt sidecar must not be overwritten on open")
	}
}

func TestAdd_FillsDerivedFieldsAndSaves(t *testing.T) {
	fs := mocks.NewFileSystem()
	s := openTestStore(t, fs)

	a, err := s.Add(65000, LabelGoal, TeamHome)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if a.GameTime != "1 - 01:05" {
		t.Errorf("expected game time 1 - 01:05, got %q", a.GameTime)
	}
	if a.Position != "65000" {
		t.Errorf("expected position string 65000, got %q", a.Position)
	}
	if a.Visibility != "visible" {
		t.Errorf("expected visibility visible, got %q", a.Visibility)
	}

	doc := sidecarDoc(t, fs)
	if len(doc.Annotations) != 1 || doc.Annotations[0].Label != LabelGoal {
		t.Errorf("annotation was not persisted: %+v", doc.Annotations)
	}
}

func TestAdd_RejectsUnknownLabelAndTeam(t *testing.T) {
	fs := mocks.NewFileSystem()
	s := openTestStore(t, fs)

	if _, err := s.Add(1000, Label("DIVING"), TeamHome); !errors.Is(err, ErrUnknownLabel) {
		t.Errorf("expected ErrUnknownLabel, got %v", err)
	}
	if _, err := s.Add(1000, LabelGoal, Team("neutral")); !errors.Is(err, ErrUnknownTeam) {
		t.Errorf("expected ErrUnknownTeam, got %v", err)
	}
	if s.Count() != 0 {
		t.Errorf("rejected annotations must not be stored")
	}
}

func TestRemoveAt(t *testing.T) {
	fs := mocks.NewFileSystem()
	s := openTestStore(t, fs)
	s.Add(10000, LabelGoal, TeamHome)
	s.Add(20000, LabelCorner, TeamAway)

	removed, err := s.RemoveAt(0)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if removed.Label != LabelGoal {
		t.Errorf("expected the first annotation back, got %+v", removed)
	}
	if s.Count() != 1 {
		t.Errorf("expected 1 annotation left, got %d", s.Count())
	}

	if _, err := s.RemoveAt(5); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("expected ErrIndexOutOfRange, got %v", err)
	}

	doc := sidecarDoc(t, fs)
	if len(doc.Annotations) != 1 || doc.Annotations[0].Label != LabelCorner {
		t.Errorf("removal was not persisted: %+v", doc.Annotations)
	}
}

func TestUpdateAt(t *testing.T) {
	fs := mocks.NewFileSystem()
	s := openTestStore(t, fs)
	s.Add(10000, LabelGoal, TeamHome)

	position := 72000
	team := TeamAway
	updated, err := s.UpdateAt(0, Update{PositionMs: &position, Team: &team})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Position != "72000" {
		t.Errorf("expected position 72000, got %q", updated.Position)
	}
	if updated.GameTime != "1 - 01:12" {
		t.Errorf("expected refreshed game time 1 - 01:12, got %q", updated.GameTime)
	}
	if updated.Team != TeamAway {
		t.Errorf("expected team away, got %q", updated.Team)
	}
	if updated.Label != LabelGoal {
		t.Errorf("label must be untouched, got %q", updated.Label)
	}
}

func TestUpdateAt_RejectsWithoutPartialApply(t *testing.T) {
	fs := mocks.NewFileSystem()
	s := openTestStore(t, fs)
	s.Add(10000, LabelGoal, TeamHome)

	corner := LabelCorner
	badTeam := Team("neutral")
	if _, err := s.UpdateAt(0, Update{Label: &corner, Team: &badTeam}); !errors.Is(err, ErrUnknownTeam) {
		t.Fatalf("expected ErrUnknownTeam, got %v", err)
	}

	if s.All()[0].Label != LabelGoal {
		t.Errorf("a rejected update must not change any field")
	}

	if _, err := s.UpdateAt(3, Update{}); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("expected ErrIndexOutOfRange, got %v", err)
	}
}

func TestAll_SortedByPosition(t *testing.T) {
	fs := mocks.NewFileSystem()
	s := openTestStore(t, fs)
	s.Add(90000, LabelGoal, TeamHome)
	s.Add(10000, LabelCorner, TeamAway)
	s.Add(50000, LabelFreeKick, TeamHome)

	all := s.All()
	for i := 1; i < len(all); i++ {
		if all[i-1].PositionMs() > all[i].PositionMs() {
			t.Fatalf("annotations not sorted: %v before %v", all[i-1].Position, all[i].Position)
		}
	}

	// The sidecar keeps insertion order; only All sorts.
	doc := sidecarDoc(t, fs)
	if doc.Annotations[0].Position != "90000" {
		t.Errorf("expected insertion order in the sidecar, got %+v", doc.Annotations)
	}
}

func TestAt_ToleranceWindow(t *testing.T) {
	fs := mocks.NewFileSystem()
	s := openTestStore(t, fs)
	s.Add(10000, LabelGoal, TeamHome)
	s.Add(10400, LabelCorner, TeamAway)
	s.Add(11000, LabelFreeKick, TeamHome)

	near := s.At(10000)
	if len(near) != 2 {
		t.Errorf("expected 2 annotations within 500ms, got %d", len(near))
	}
	wide := s.AtWithin(10000, 1000)
	if len(wide) != 3 {
		t.Errorf("expected 3 annotations within 1000ms, got %d", len(wide))
	}
	none := s.AtWithin(99999, 100)
	if len(none) != 0 {
		t.Errorf("expected no annotations far away, got %d", len(none))
	}
}

func TestAdd_SurfacesSaveFailure(t *testing.T) {
	fs := mocks.NewFileSystem()
	s := openTestStore(t, fs)

	fs.WriteFileFunc = func(path string, data []byte) error {
		return fmt.Errorf("disk full")
	}
	if _, err := s.Add(1000, LabelGoal, TeamHome); err == nil {
		t.Errorf("expected save failure to surface")
	}
}
