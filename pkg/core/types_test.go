package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestMapPosition(t *testing.T) {
	r := ColorRange{Mode: RangeFixed, Min: 0, Max: 100}
	tests := []struct {
		v    float64
		want float64
	}{
		{0, 0},
		{50, 0.5},
		{100, 1},
		{-10, 0},
		{200, 1},
	}
	for _, tt := range tests {
		if got := r.MapPosition(tt.v); got != tt.want {
			t.Errorf("MapPosition(%v) = %v, want %v", tt.v, got, tt.want)
		}
	}
}

func TestMapPositionInverted(t *testing.T) {
	r := ColorRange{Mode: RangeFixed, Min: 0, Max: 100, Inverted: true}
	if got := r.MapPosition(0); got != 1 {
		t.Errorf("inverted MapPosition(0) = %v, want 1", got)
	}
	if got := r.MapPosition(100); got != 0 {
		t.Errorf("inverted MapPosition(100) = %v, want 0", got)
	}

	// Inversion flips the mapping only; stored bounds are untouched.
	if r.Min != 0 || r.Max != 100 {
		t.Error("inversion must not change stored bounds")
	}
}

func TestMapPositionDegenerate(t *testing.T) {
	r := ColorRange{Min: 5, Max: 5}
	if got := r.MapPosition(5); got != 0 {
		t.Errorf("degenerate MapPosition = %v, want 0", got)
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&ParseError{Line: 3, Message: "unknown operation"}, "line 3: unknown operation"},
		{&ValidationError{Field: "width", Message: "must be positive"}, "width: must be positive"},
		{&ValidationError{Message: "bad request"}, "bad request"},
		{&DuplicateNameError{Name: "Topo"}, `name already taken: "Topo"`},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

func TestIOErrorUnwrap(t *testing.T) {
	inner := fmt.Errorf("disk full")
	err := &IOError{Path: "/out/a.json", Err: inner}
	if !errors.Is(err, inner) {
		t.Error("IOError should unwrap to its cause")
	}
}
