package model

import (
	"encoding/json"
	"testing"
)

func TestHallCapacity(t *testing.T) {
	h := Hall{Rows: 10, SeatsInRow: 12}
	if got := h.Capacity(); got != 120 {
		t.Fatalf("expected capacity 120, got %d", got)
	}
}

func TestHallJSONIncludesCapacity(t *testing.T) {
	b, err := json.Marshal(Hall{ID: 3, Name: "Blue", Rows: 10, SeatsInRow: 10})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["capacity"] != float64(100) || got["seats_in_row"] != float64(10) || got["name"] != "Blue" {
		t.Fatalf("unexpected json: %s", b)
	}
}

func TestActorFullName(t *testing.T) {
	if got := (Actor{FirstName: "Judi", LastName: "Dench"}).FullName(); got != "Judi Dench" {
		t.Fatalf("unexpected full name %q", got)
	}
}
