package save

import (
	"errors"
	"testing"

	"github.com/milk9111/shmup/entity"
	"github.com/milk9111/shmup/round"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewStore(nil, nil)
	if s.Exists("quick") {
		t.Fatalf("empty store reports a save")
	}

	snap := Snapshot{
		Frame: 321,
		Round: round.State{
			Name:        "round_1",
			CurrentTime: 7,
			TotalFrame:  321,
			BossMode:    true,
			HoldsDone:   []int{3},
			Vars:        map[string]any{"boss": true, "wave": 2},
		},
		Entities: []entity.State{
			{Name: "player", X: 100, Y: 200, Alpha: 1, HP: 3, HPMax: 5, MoveEnable: true},
			{Name: "drone", X: 40.5, Y: -3, Alpha: 1, HP: 1, HPMax: 3, DirectionX: "left"},
		},
	}
	if err := s.Save("quick", snap); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !s.Exists("quick") {
		t.Fatalf("expected a save in slot quick")
	}

	got, err := s.Load("quick")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Frame != 321 || got.Round.CurrentTime != 7 || !got.Round.BossMode || len(got.Round.HoldsDone) != 1 {
		t.Fatalf("round state lost: %+v", got.Round)
	}
	if got.Round.Vars["boss"] != true || got.Round.Vars["wave"] != 2 {
		t.Fatalf("script vars lost: %+v", got.Round.Vars)
	}
	if len(got.Entities) != 2 || got.Entities[1].X != 40.5 || got.Entities[1].DirectionX != "left" {
		t.Fatalf("entity state lost: %+v", got.Entities)
	}
}

func TestLoadMissingSlot(t *testing.T) {
	s := NewStore(nil, nil)
	if _, err := s.Load("nothing"); !errors.Is(err, ErrNoSave) {
		t.Fatalf("expected ErrNoSave, got %v", err)
	}
}
