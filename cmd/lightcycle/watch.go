package main

import (
	"fmt"

	"github.com/Mshel/lightcycle/internal/arena"
	"github.com/Mshel/lightcycle/internal/game"
	"github.com/Mshel/lightcycle/internal/ui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var watchFlags struct {
	noStore bool
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the engine play in this terminal",
	Args:  cobra.NoArgs,
	RunE:  runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().BoolVar(&watchFlags.noStore, "no-store", false, "do not save results or show standings")
}

// spectatorDeps wires the spectator to the current engine config. engine is
// called for every new match, so hot reloads apply from the next one on.
func spectatorDeps(engine func() game.Config, store *arena.ResultStore) ui.Deps {
	return ui.Deps{
		Engine: engine,
		Store:  store,
		Tick:   cfg.Server.Tick(),
		Board:  cfg.Arena.Series,
	}
}

func runWatch(cmd *cobra.Command, args []string) error {
	var store *arena.ResultStore
	if !watchFlags.noStore {
		var err error
		store, err = arena.OpenResultStore(cfg.Arena.DBPath)
		if err != nil {
			log.Warn("Results will not be saved", "error", err)
		} else {
			defer store.Close()
		}
	}

	engine := func() game.Config { return cfg.Engine }
	p := tea.NewProgram(ui.NewControllerModel(spectatorDeps(engine, store), 0, 0), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("spectator: %w", err)
	}
	return nil
}
