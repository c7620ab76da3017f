// Command validate provides a small CLI that validates game preset JSON files
// in a configs directory (../configs by default). It checks:
//   - JSON structure, unknown keys and required fields
//   - Board dimensions within the engine's limits
//   - One fleet per valid player
//   - Every ship: name, orientation, size, bounds and overlap, reported
//     individually rather than stopping at the first problem
//   - That the engine itself accepts the preset and builds a game from it
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wricardo/grid-battle/game/engine"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

func (r *ValidationResult) fail(format string, args ...any) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) info(format string, args ...any) {
	r.Errors = append(r.Errors, "✓ "+fmt.Sprintf(format, args...))
}

// validateConfig loads and validates a single preset file.
func validateConfig(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	var config engine.GameConfig
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&config); err != nil {
		result.fail("Invalid JSON: %v", err)
		return result
	}

	if config.Name == "" {
		result.fail("name is required")
	}
	if config.Description == "" {
		result.fail("description is required")
	}
	if err := engine.ValidateDimensions(config.HorizSize, config.VertSize); err != nil {
		result.fail("Board %dx%d: %v", config.HorizSize, config.VertSize, err)
		return result
	}

	shipsPerPlayer := make(map[int]int)
	cellsPerPlayer := make(map[int]int)
	for i, fleet := range config.Fleets {
		player := engine.PlayerID(fleet.Player)
		if !player.Valid() {
			result.fail("Fleet #%d: player must be 0 or 1, got %d", i+1, fleet.Player)
			continue
		}
		if _, dup := shipsPerPlayer[fleet.Player]; dup {
			result.fail("Fleet #%d: duplicate fleet for player %d", i+1, fleet.Player)
			continue
		}

		shipsPerPlayer[fleet.Player] = 0
		for _, problem := range validateFleet(config.HorizSize, config.VertSize, fleet) {
			result.fail("%s: %s", player, problem)
		}
		for _, ship := range fleet.Ships {
			shipsPerPlayer[fleet.Player]++
			cellsPerPlayer[fleet.Player] += ship.Size
		}
	}

	// The engine has the final word; it should agree with the checks above.
	if result.Valid {
		if _, err := engine.NewEngineFromConfig(&config); err != nil {
			result.fail("Engine rejected preset: %v", err)
		}
	}

	if result.Valid {
		result.info("Name: %s", config.Name)
		result.info("Board: %dx%d", config.HorizSize, config.VertSize)
		if len(config.Fleets) == 0 {
			result.info("Fleets: none, players deploy their own")
		}
		for p := 0; p < engine.PlayerCount; p++ {
			if ships, ok := shipsPerPlayer[p]; ok {
				result.info("%s: %d ships, %d cells", engine.PlayerID(p), ships, cellsPerPlayer[p])
			}
		}
		if len(shipsPerPlayer) == engine.PlayerCount && cellsPerPlayer[0] != cellsPerPlayer[1] {
			result.Errors = append(result.Errors, fmt.Sprintf("⚠ Fleets are unbalanced: %d vs %d cells", cellsPerPlayer[0], cellsPerPlayer[1]))
		}
	}

	return result
}

// validateFleet deploys every ship of fleet on a scratch board and reports
// each ship that cannot be placed. Ships that fail are skipped so later
// ships are still checked against the ones that fit.
func validateFleet(horizSize, vertSize int, fleet engine.FleetConfig) []string {
	var problems []string

	board, err := engine.NewBoard(horizSize, vertSize)
	if err != nil {
		return []string{err.Error()}
	}

	for i, placement := range fleet.Ships {
		label := fmt.Sprintf("ship #%d (%q)", i+1, placement.Name)

		name, err := engine.ParseShipName(placement.Name)
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", label, err))
			continue
		}
		orientation, err := engine.ParseOrientation(placement.Orientation)
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", label, err))
			continue
		}
		ship, err := engine.NewShip(name, placement.Left, placement.Top, placement.Size, orientation)
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", label, err))
			continue
		}

		deployed, err := board.Deploy(ship)
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", label, err))
			continue
		}
		if deployed.Outcome == engine.DeployOccupied {
			problems = append(problems, fmt.Sprintf("%s: overlaps %s", label, deployed.Ship))
		}
	}

	return problems
}

// main scans the configs directory (first argument, ../configs by default)
// for *.json files and validates each one, printing a concise report and
// exiting with non-zero status if any are invalid.
func main() {
	configDir := "../configs"
	if len(os.Args) > 1 {
		configDir = os.Args[1]
	}

	files, err := filepath.Glob(filepath.Join(configDir, "*.json"))
	if err != nil {
		fmt.Printf("Error finding config files: %v\n", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Printf("No config files found in %s\n", configDir)
		os.Exit(1)
	}

	allValid := true
	for _, file := range files {
		result := validateConfig(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Println("  ❌ " + err)
				}
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All configurations are valid!")
	} else {
		fmt.Println("❌ Some configurations have errors")
		os.Exit(1)
	}
}
