package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/Mshel/lightcycle/internal/arena"
	"github.com/Mshel/lightcycle/internal/game"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var arenaFlags struct {
	opponent  string
	games     int
	seed      int64
	noStore   bool
	showBoard bool
}

var arenaCmd = &cobra.Command{
	Use:   "arena",
	Short: "Play the engine against another strategy",
	Long: `Play a series of matches between the engine and an opponent from random
start positions, save every result and print the summary.

Opponents: random, engine, lua:<builtin> or a path to a .lua script that
defines getNextDirection(state).

Examples:
  lightcycle arena
  lightcycle arena --opponent lua:greedy --games 100 --seed 7
  lightcycle arena --opponent ./hugger.lua --no-store --board`,
	Args: cobra.NoArgs,
	RunE: runArena,
}

func init() {
	rootCmd.AddCommand(arenaCmd)

	arenaCmd.Flags().StringVarP(&arenaFlags.opponent, "opponent", "o", "", "opponent strategy (defaults to arena.opponent)")
	arenaCmd.Flags().IntVarP(&arenaFlags.games, "games", "n", 0, "number of games (defaults to arena.series.games)")
	arenaCmd.Flags().Int64Var(&arenaFlags.seed, "seed", 0, "seed for start positions (defaults to arena.series.seed)")
	arenaCmd.Flags().BoolVar(&arenaFlags.noStore, "no-store", false, "do not save results")
	arenaCmd.Flags().BoolVar(&arenaFlags.showBoard, "board", false, "print the final board of every match")
}

func runArena(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	series := cfg.Arena.Series
	if arenaFlags.games > 0 {
		series.Games = arenaFlags.games
	}
	if cmd.Flags().Changed("seed") {
		series.Seed = arenaFlags.seed
	}
	opponentName := cfg.Arena.Opponent
	if arenaFlags.opponent != "" {
		opponentName = arenaFlags.opponent
	}

	opponent, err := arena.NewOpponent(opponentName, series.Seed, cfg.Engine)
	if err != nil {
		return err
	}
	engine := arena.NewEngineStrategy("engine", game.NewController(cfg.Engine))

	var store *arena.ResultStore
	if !arenaFlags.noStore {
		store, err = arena.OpenResultStore(cfg.Arena.DBPath)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	out := cmd.OutOrStdout()
	log.Info("Starting series", "engine", engine.Name(), "opponent", opponent.Name(), "games", series.Games,
		"board", fmt.Sprintf("%dx%d", series.Width, series.Height))

	onResult := func(match *arena.Match, result arena.Result) {
		if arenaFlags.showBoard {
			fmt.Fprintf(out, "%s vs %s: %s after %d turns\n%s\n", result.PlayerOne, result.PlayerTwo,
				result.Outcome, result.Turns, match.Board())
		}
		if store == nil {
			return
		}
		if err := store.Save(ctx, result); err != nil {
			log.Error("Failed to save result", "id", result.ID, "error", err)
		}
	}

	summary, err := arena.Series(ctx, series, engine, opponent, onResult)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s vs %s: %s\n", engine.Name(), opponent.Name(), summary)

	if store == nil {
		return nil
	}
	standings, err := store.Standings(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "\nStandings:")
	for i, standing := range standings {
		fmt.Fprintf(out, "%3d. %-20s %4d W %4d L %4d D\n", i+1, standing.Name, standing.Wins, standing.Losses, standing.Draws)
	}
	return nil
}
