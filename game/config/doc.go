// Package config provides board preset management for the grid battle game.
//
// A preset is a JSON file in the configs directory naming the board size and,
// optionally, the fleet each player starts with:
//
//	{
//	  "name": "Skirmish",
//	  "description": "Quick 6x6 game",
//	  "horiz_size": 6,
//	  "vert_size": 6,
//	  "fleets": [
//	    {"player": 0, "ships": [{"name": "A", "left": 1, "top": 1, "orientation": "H", "size": 3}]}
//	  ]
//	}
//
// The file name without extension is the config ID used to create sessions.
// Presets are validated on load with engine.ValidateGameConfig, so a preset
// whose fleet overlaps or leaves the board is rejected with ErrInvalidConfig.
//
// Shipped presets:
//   - classic: 10x10, five ships per side (the default)
//   - skirmish: 6x6, three ships per side
//   - open: empty 10x10 boards
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameConfig, err := manager.LoadConfig("skirmish")
//	defaultConfig := manager.GetDefault()
//	configs, err := manager.ListConfigs()
//
// Loaded presets are cached; RefreshCache drops the cache and reloads the
// default from disk.
package config
