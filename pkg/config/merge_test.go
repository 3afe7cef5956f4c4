package config

import (
	"reflect"
	"testing"
)

func TestMerge_DeepMergesObjects(t *testing.T) {
	lower := map[string]interface{}{
		"a": map[string]interface{}{"b": 1, "c": 2},
	}
	higher := map[string]interface{}{
		"a": map[string]interface{}{"b": 9},
	}

	got := Merge(lower, higher)
	want := map[string]interface{}{
		"a": map[string]interface{}{"b": 9, "c": 2},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Merge = %v, want %v", got, want)
	}
}

func TestMerge_ArraysReplaceNeverConcatenate(t *testing.T) {
	lower := map[string]interface{}{"list": []interface{}{1, 2}}
	higher := map[string]interface{}{"list": []interface{}{9}}

	got := Merge(lower, higher)
	want := map[string]interface{}{"list": []interface{}{9}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Merge = %v, want %v", got, want)
	}
}

func TestMerge_ScalarReplacesObjectAndViceVersa(t *testing.T) {
	got := Merge(
		map[string]interface{}{"x": map[string]interface{}{"nested": true}},
		map[string]interface{}{"x": "flat"},
	)
	if got["x"] != "flat" {
		t.Errorf("Expected higher scalar to replace object, got %v", got["x"])
	}

	got = Merge(
		map[string]interface{}{"x": "flat"},
		map[string]interface{}{"x": map[string]interface{}{"nested": true}},
	)
	if !reflect.DeepEqual(got["x"], map[string]interface{}{"nested": true}) {
		t.Errorf("Expected higher object to replace scalar, got %v", got["x"])
	}
}

func TestMerge_NullReplaces(t *testing.T) {
	got := Merge(
		map[string]interface{}{"x": 1},
		map[string]interface{}{"x": nil},
	)
	v, ok := got["x"]
	if !ok || v != nil {
		t.Errorf("Expected explicit null to replace lower value, got %v", got)
	}
}

func TestMerge_DoesNotMutateInputs(t *testing.T) {
	lower := map[string]interface{}{
		"a": map[string]interface{}{"b": 1},
	}
	higher := map[string]interface{}{
		"a": map[string]interface{}{"c": 2},
	}

	out := Merge(lower, higher)
	out["a"].(map[string]interface{})["b"] = 99

	if lower["a"].(map[string]interface{})["b"] != 1 {
		t.Error("Merge result shares memory with lower input")
	}
	if len(higher["a"].(map[string]interface{})) != 1 {
		t.Error("Merge result shares memory with higher input")
	}
}

func TestMergeLayers_SkipsNilAndAppliesInOrder(t *testing.T) {
	got := MergeLayers(
		map[string]interface{}{"x": 1, "only": "lowest"},
		nil,
		map[string]interface{}{"x": 2},
		map[string]interface{}{"x": 3},
	)
	if got["x"] != 3 {
		t.Errorf("Expected highest layer to win, got %v", got["x"])
	}
	if got["only"] != "lowest" {
		t.Errorf("Expected untouched lower key to survive, got %v", got["only"])
	}
}
