package deverr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindPredicates(t *testing.T) {
	l := NewLogic("op", "bad path")
	r := NewRuntime("op", "timed out", nil)
	if !IsLogic(l) || IsRuntime(l) {
		t.Errorf("expected logic error classified as logic")
	}
	if !IsRuntime(r) || IsLogic(r) {
		t.Errorf("expected runtime error classified as runtime")
	}
}

func TestWrappedKind(t *testing.T) {
	r := NewRuntime("port", "i/o failure", errors.New("socket closed"))
	wrapped := fmt.Errorf("accessor read: %w", r)
	if !IsRuntime(wrapped) {
		t.Errorf("expected wrapped runtime error to still classify as runtime")
	}
	if !errors.Is(wrapped, r) {
		t.Errorf("expected errors.Is to find wrapped cause")
	}
}
