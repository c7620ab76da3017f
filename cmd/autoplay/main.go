// Command autoplay plays grid battle sessions over the REST API. It creates
// a session from a preset (or picks up an existing one) and fires at the
// opponent's board with a hunt/target strategy until a fleet is sunk.
//
// With --duel both players shoot in turn and the first to sink the other
// fleet wins.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/grid-battle/game/engine"
	"github.com/wricardo/grid-battle/game/service"
)

// Client talks to a grid battle server.
type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s failed: %s - %s", method, path, resp.Status, apiErr.Error)
		}
		return fmt.Errorf("%s %s failed: %s", method, path, resp.Status)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

func (c *Client) CreateSession(ctx context.Context, configID string) (*service.SessionInfo, error) {
	var session service.SessionInfo
	body := map[string]string{"config_id": configID}
	if err := c.do(ctx, http.MethodPost, "/api/sessions", body, &session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return &session, nil
}

func (c *Client) GetSession(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
	var session service.SessionInfo
	if err := c.do(ctx, http.MethodGet, "/api/sessions/"+url.PathEscape(sessionID), nil, &session); err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &session, nil
}

func (c *Client) Shoot(ctx context.Context, sessionID string, player int, cell Cell) (*service.ShotResult, error) {
	var result service.ShotResult
	path := fmt.Sprintf("/api/sessions/%s/players/%d/shoot", url.PathEscape(sessionID), player)
	body := map[string]int{"h": cell.H, "v": cell.V}
	if err := c.do(ctx, http.MethodPost, path, body, &result); err != nil {
		return nil, fmt.Errorf("shoot: %w", err)
	}
	return &result, nil
}

// PlayOptions controls a single autoplay run.
type PlayOptions struct {
	Players  []int // who shoots, in turn order
	MaxShots int   // per player, 0 for no limit
	Delay    time.Duration
	Verbose  bool
}

// Summary is the result of a run. Winner is -1 when no fleet went down.
type Summary struct {
	SessionID string
	Winner    int
	Shots     map[int]int
	Hits      map[int]int
}

type shooter struct {
	player   int
	strategy *HuntTargetStrategy
	done     bool
}

var errBoardsNotAllocated = errors.New("boards are not allocated")

// Play fires at the session's boards until one of the shooting players
// sinks the opposing fleet, runs out of cells, or hits the shot limit.
func Play(ctx context.Context, client *Client, session *service.SessionInfo, opts PlayOptions) (*Summary, error) {
	state := session.GameState
	if state == nil {
		return nil, errBoardsNotAllocated
	}

	shooters := make([]*shooter, 0, len(opts.Players))
	for _, p := range opts.Players {
		player := engine.PlayerID(p)
		if !player.Valid() {
			return nil, fmt.Errorf("player must be 0 or 1, got %d", p)
		}
		target := int(player.Opponent())
		if target >= len(state.Boards) || state.Boards[target] == nil {
			return nil, errBoardsNotAllocated
		}
		board := state.Boards[target]
		shooters = append(shooters, &shooter{
			player:   p,
			strategy: NewHuntTargetStrategy(board.HorizSize, board.VertSize),
		})
	}

	summary := &Summary{
		SessionID: session.ID,
		Winner:    -1,
		Shots:     make(map[int]int),
		Hits:      make(map[int]int),
	}

	for {
		active := 0
		for _, s := range shooters {
			if s.done {
				continue
			}
			if opts.MaxShots > 0 && summary.Shots[s.player] >= opts.MaxShots {
				s.done = true
				continue
			}
			cell, ok := s.strategy.NextShot()
			if !ok {
				s.done = true
				continue
			}
			active++

			result, err := client.Shoot(ctx, session.ID, s.player, cell)
			if err != nil {
				return summary, err
			}
			summary.Shots[s.player]++
			if result.Outcome == "new_hit" || result.Outcome == "sunk" {
				summary.Hits[s.player]++
			}
			s.strategy.Record(cell, result.Outcome, result.SunkShip)

			if opts.Verbose {
				log.Printf("%s -> (%d,%d) %s", engine.PlayerID(s.player), cell.H, cell.V, result.Outcome)
			}
			if result.Outcome == "sunk" && result.SunkShip != nil {
				log.Printf("%s sank ship %s", engine.PlayerID(s.player), result.SunkShip.Name)
			}
			if result.GameOver {
				summary.Winner = s.player
				return summary, nil
			}

			if opts.Delay > 0 {
				select {
				case <-ctx.Done():
					return summary, ctx.Err()
				case <-time.After(opts.Delay):
				}
			}
		}
		if active == 0 {
			return summary, nil
		}
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "autoplay",
		Usage: "Play grid battle sessions automatically over the REST API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "url",
				Value:   "http://localhost:8080",
				Usage:   "Game server URL",
				Sources: cli.EnvVars("GRID_BATTLE_API"),
			},
			&cli.StringFlag{
				Name:  "config",
				Value: "classic",
				Usage: "Preset for the new session (needs fleets for both players)",
			},
			&cli.StringFlag{
				Name:  "continue",
				Usage: "Resume playing an existing session by ID",
			},
			&cli.IntFlag{
				Name:  "player",
				Value: 0,
				Usage: "Player that shoots (0 or 1)",
			},
			&cli.BoolFlag{
				Name:  "duel",
				Usage: "Both players shoot in turn",
			},
			&cli.IntFlag{
				Name:  "max-shots",
				Usage: "Maximum shots per player (0 = no limit)",
			},
			&cli.IntFlag{
				Name:  "delay",
				Usage: "Delay between shots in milliseconds (0 = no delay)",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Log every shot",
			},
		},
		Action: run,
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	log.Printf("Connecting to game server at %s", cmd.String("url"))
	client := NewClient(cmd.String("url"))

	var session *service.SessionInfo
	var err error
	if id := cmd.String("continue"); id != "" {
		session, err = client.GetSession(ctx, id)
		if err != nil {
			return err
		}
		log.Printf("Resuming session: %s", session.ID)
	} else {
		session, err = client.CreateSession(ctx, cmd.String("config"))
		if err != nil {
			return err
		}
		log.Printf("Session created: %s (config %s)", session.ID, session.ConfigName)
	}

	players := []int{int(cmd.Int("player"))}
	if cmd.Bool("duel") {
		players = []int{int(engine.PlayerOne), int(engine.PlayerTwo)}
	}

	summary, err := Play(ctx, client, session, PlayOptions{
		Players:  players,
		MaxShots: int(cmd.Int("max-shots")),
		Delay:    time.Duration(cmd.Int("delay")) * time.Millisecond,
		Verbose:  cmd.Bool("verbose"),
	})
	if err != nil {
		return err
	}

	for _, p := range players {
		log.Printf("%s: %d shots, %d hits", engine.PlayerID(p), summary.Shots[p], summary.Hits[p])
	}
	if summary.Winner < 0 {
		return fmt.Errorf("no fleet was sunk in session %s", summary.SessionID)
	}
	log.Printf("%s wins session %s", engine.PlayerID(summary.Winner), summary.SessionID)
	return nil
}

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
