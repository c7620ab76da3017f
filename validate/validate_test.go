package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wricardo/grid-battle/game/engine"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test_config.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func containsError(errors []string, substr string) bool {
	for _, err := range errors {
		if strings.Contains(err, substr) {
			return true
		}
	}
	return false
}

func TestValidateConfig_ValidConfig(t *testing.T) {
	path := writeConfig(t, `{
		"name": "Test Config",
		"description": "Test configuration",
		"horiz_size": 6,
		"vert_size": 5,
		"fleets": [
			{"player": 0, "ships": [
				{"name": "A", "left": 0, "top": 0, "orientation": "H", "size": 3},
				{"name": "B", "left": 5, "top": 1, "orientation": "V", "size": 4}
			]},
			{"player": 1, "ships": [
				{"name": "A", "left": 1, "top": 4, "orientation": "H", "size": 5}
			]}
		]
	}`)

	result := validateConfig(path)
	if !result.Valid {
		t.Fatalf("Expected valid config, but got errors: %v", result.Errors)
	}

	if result.File != filepath.Base(path) {
		t.Errorf("Expected file name %s, got %s", filepath.Base(path), result.File)
	}

	expected := []string{
		"✓ Name: Test Config",
		"✓ Board: 6x5",
		"✓ Player{0}: 2 ships, 7 cells",
		"✓ Player{1}: 1 ships, 5 cells",
		"⚠ Fleets are unbalanced: 7 vs 5 cells",
	}
	for _, want := range expected {
		if !containsError(result.Errors, want) {
			t.Errorf("Expected %q in report, got %v", want, result.Errors)
		}
	}
}

func TestValidateConfig_NoFleets(t *testing.T) {
	path := writeConfig(t, `{"name": "Open", "description": "Empty boards", "horiz_size": 10, "vert_size": 10}`)

	result := validateConfig(path)
	if !result.Valid {
		t.Fatalf("Expected valid config, but got errors: %v", result.Errors)
	}
	if !containsError(result.Errors, "Fleets: none") {
		t.Errorf("Expected fleets note, got %v", result.Errors)
	}
}

func TestValidateConfig_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		config   string
		expected []string
	}{
		{
			name:     "invalid json",
			config:   `{"name": "test", invalid json}`,
			expected: []string{"Invalid JSON"},
		},
		{
			name:     "unknown key",
			config:   `{"name": "test", "description": "d", "grid_size": 5, "horiz_size": 5, "vert_size": 5}`,
			expected: []string{"Invalid JSON", "grid_size"},
		},
		{
			name:     "missing name and description",
			config:   `{"horiz_size": 5, "vert_size": 5}`,
			expected: []string{"name is required", "description is required"},
		},
		{
			name:     "board too small",
			config:   `{"name": "n", "description": "d", "horiz_size": 1, "vert_size": 5}`,
			expected: []string{"Board 1x5"},
		},
		{
			name:     "board too large",
			config:   `{"name": "n", "description": "d", "horiz_size": 10, "vert_size": 51}`,
			expected: []string{"Board 10x51"},
		},
		{
			name: "bad player and duplicate fleet",
			config: `{"name": "n", "description": "d", "horiz_size": 5, "vert_size": 5, "fleets": [
				{"player": 2, "ships": []},
				{"player": 0, "ships": []},
				{"player": 0, "ships": []}
			]}`,
			expected: []string{"Fleet #1: player must be 0 or 1", "Fleet #3: duplicate fleet for player 0"},
		},
		{
			name: "every bad ship reported",
			config: `{"name": "n", "description": "d", "horiz_size": 5, "vert_size": 5, "fleets": [
				{"player": 1, "ships": [
					{"name": "AB", "left": 0, "top": 0, "orientation": "H", "size": 2},
					{"name": "B", "left": 0, "top": 0, "orientation": "D", "size": 2},
					{"name": "C", "left": 0, "top": 0, "orientation": "H", "size": 0},
					{"name": "D", "left": 4, "top": 0, "orientation": "H", "size": 2},
					{"name": "E", "left": 0, "top": 1, "orientation": "H", "size": 3},
					{"name": "F", "left": 1, "top": 0, "orientation": "V", "size": 2}
				]}
			]}`,
			expected: []string{
				`Player{1}: ship #1 ("AB")`,
				`Player{1}: ship #2 ("B")`,
				`Player{1}: ship #3 ("C")`,
				`Player{1}: ship #4 ("D")`,
				`Player{1}: ship #6 ("F"): overlaps`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := validateConfig(writeConfig(t, tt.config))
			if result.Valid {
				t.Fatal("Expected invalid config")
			}
			for _, want := range tt.expected {
				if !containsError(result.Errors, want) {
					t.Errorf("Expected error containing %q, got %v", want, result.Errors)
				}
			}
		})
	}
}

func TestValidateConfig_MissingFile(t *testing.T) {
	result := validateConfig("/non/existent/file.json")
	if result.Valid {
		t.Error("Expected invalid result for missing file")
	}
	if !containsError(result.Errors, "Failed to read file") {
		t.Errorf("Expected 'Failed to read file' error, got: %v", result.Errors)
	}
}

func TestValidateFleet_SkipsFailedShips(t *testing.T) {
	// B fails, so C may take its cells without an overlap report
	problems := validateFleet(4, 4, fleetOf(
		placement("A", 0, 0, "H", 2),
		placement("B", 3, 0, "H", 2),
		placement("C", 2, 0, "H", 2),
	))

	if len(problems) != 1 {
		t.Fatalf("Expected 1 problem, got %v", problems)
	}
	if !strings.Contains(problems[0], `ship #2 ("B")`) {
		t.Errorf("Expected ship B to be reported, got %s", problems[0])
	}
}

func TestShippedConfigsAreValid(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("..", "configs", "*.json"))
	if err != nil {
		t.Fatalf("Glob failed: %v", err)
	}
	if len(files) == 0 {
		t.Skip("Skipping test - configs directory not found")
	}

	for _, file := range files {
		t.Run(filepath.Base(file), func(t *testing.T) {
			result := validateConfig(file)
			if !result.Valid {
				t.Errorf("Shipped preset is invalid: %v", result.Errors)
			}
		})
	}
}

func placement(name string, left, top int, orientation string, size int) engine.ShipPlacement {
	return engine.ShipPlacement{Name: name, Left: left, Top: top, Orientation: orientation, Size: size}
}

func fleetOf(ships ...engine.ShipPlacement) engine.FleetConfig {
	return engine.FleetConfig{Player: 0, Ships: ships}
}
