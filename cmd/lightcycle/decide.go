package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/Mshel/lightcycle/internal/game"
	"github.com/spf13/cobra"
)

var decideFlags struct {
	file    string
	explain bool
}

var decideCmd = &cobra.Command{
	Use:   "decide",
	Short: "Decide one move from a JSON turn snapshot",
	Long: `Read a turn snapshot and print the chosen direction.

The snapshot looks like:
  {"selfPosition":[x,y],"opponentPosition":[x,y],"grid":[[0,1,...],...],
   "opponentLastDirection":"up","turnsRemaining":120}

Examples:
  lightcycle decide < turn.json
  lightcycle decide --file turn.json --explain`,
	Args: cobra.NoArgs,
	RunE: runDecide,
}

func init() {
	rootCmd.AddCommand(decideCmd)

	decideCmd.Flags().StringVarP(&decideFlags.file, "file", "f", "", "read the snapshot from a file instead of stdin")
	decideCmd.Flags().BoolVar(&decideFlags.explain, "explain", false, "print the scored candidates as JSON")
}

type candidateOutput struct {
	Direction string              `json:"direction"`
	Score     float64             `json:"score"`
	DeadEnd   bool                `json:"deadEnd"`
	Terms     game.ScoreBreakdown `json:"terms"`
}

type decisionOutput struct {
	Move       string            `json:"move"`
	Mode       string            `json:"mode"`
	Error      string            `json:"error,omitempty"`
	ElapsedMS  float64           `json:"elapsedMs"`
	Candidates []candidateOutput `json:"candidates"`
}

func runDecide(cmd *cobra.Command, args []string) error {
	var input io.Reader = cmd.InOrStdin()
	if decideFlags.file != "" {
		f, err := os.Open(decideFlags.file)
		if err != nil {
			return fmt.Errorf("failed to open snapshot: %w", err)
		}
		defer f.Close()
		input = f
	}

	data, err := io.ReadAll(input)
	if err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}

	// A snapshot that does not parse still gets a move, as the judge expects.
	controller := game.NewController(cfg.Engine)
	ts, err := game.ParseTurnState(data)
	if err != nil {
		ts = game.TurnState{}
	}
	decision := controller.Decide(ts)
	if err != nil {
		decision.Err = err
	}

	if !decideFlags.explain {
		fmt.Fprintln(cmd.OutOrStdout(), decision.Direction)
		return nil
	}

	out := decisionOutput{
		Move:      decision.Direction.String(),
		Mode:      decision.Mode.String(),
		ElapsedMS: float64(decision.Elapsed.Microseconds()) / 1000,
	}
	if decision.Err != nil {
		out.Error = decision.Err.Error()
	}
	for _, candidate := range decision.Candidates {
		out.Candidates = append(out.Candidates, candidateOutput{
			Direction: candidate.Direction.String(),
			Score:     candidate.Score,
			DeadEnd:   candidate.DeadEnd,
			Terms:     candidate.Terms,
		})
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}
