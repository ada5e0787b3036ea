package game

import (
	"errors"
	"testing"
)

func TestParseDirection(t *testing.T) {
	tests := []struct {
		token   string
		want    Direction
		wantErr bool
	}{
		{"up", Up, false},
		{"DOWN", Down, false},
		{" Left ", Left, false},
		{"right", Right, false},
		{"north", Up, true},
		{"", Up, true},
	}

	for _, tt := range tests {
		got, err := ParseDirection(tt.token)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("ParseDirection(%q): expected ErrInvalidInput, got %v", tt.token, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseDirection(%q) = %v, %v; want %v", tt.token, got, err, tt.want)
		}
	}
}

func TestDirectionOffsetsAndOpposites(t *testing.T) {
	origin := Position{5, 5}
	for _, dir := range Directions {
		next := origin.Add(dir)
		if GetManhattanDistance(origin, next) != 1 {
			t.Errorf("%s moves %s -> %s", dir, origin, next)
		}
		if next.Add(dir.Opposite()) != origin {
			t.Errorf("%s and %s do not cancel", dir, dir.Opposite())
		}
		got, ok := DirectionBetween(origin, next)
		if !ok || got != dir {
			t.Errorf("DirectionBetween(%s, %s) = %s, %v", origin, next, got, ok)
		}
	}

	if up := (Position{0, 0}).Add(Up); up.Y != -1 {
		t.Errorf("up should decrease y, got %s", up)
	}
	if _, ok := DirectionBetween(Position{0, 0}, Position{1, 1}); ok {
		t.Error("diagonal cells are not adjacent")
	}
}

func TestDirectionText(t *testing.T) {
	var dir Direction
	if err := dir.UnmarshalText([]byte("Right")); err != nil || dir != Right {
		t.Fatalf("UnmarshalText: %v, %v", dir, err)
	}
	if _, err := Direction(9).MarshalText(); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for an unknown direction, got %v", err)
	}
}
