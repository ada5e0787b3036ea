package arena

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
)

func openTestStore(t *testing.T) *ResultStore {
	t.Helper()
	store, err := OpenResultStore(filepath.Join(t.TempDir(), "results.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestResultStoreSaveAndRecent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	results := []Result{
		{ID: uuid.New(), PlayerOne: "engine", PlayerTwo: "random", Outcome: OutcomePlayerOne, Turns: 40, Width: 18, Height: 20, CreatedAt: now.Add(-2 * time.Minute)},
		{ID: uuid.New(), PlayerOne: "engine", PlayerTwo: "lua:greedy", Outcome: OutcomeDraw, Turns: 12, Width: 18, Height: 20, CreatedAt: now.Add(-time.Minute)},
		{PlayerOne: "random", PlayerTwo: "engine", Outcome: OutcomePlayerOne, Turns: 9, Width: 10, Height: 10, CreatedAt: now},
	}
	for _, result := range results {
		if err := store.Save(ctx, result); err != nil {
			t.Fatal(err)
		}
	}

	count, err := store.Count(ctx)
	if err != nil || count != 3 {
		t.Fatalf("count: %d, %v", count, err)
	}

	recent, err := store.Recent(ctx, 2, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 results, got %d", len(recent))
	}
	if recent[0].PlayerOne != "random" || recent[0].ID == uuid.Nil {
		t.Errorf("newest result: %+v", recent[0])
	}
	if recent[1].ID != results[1].ID || recent[1].Outcome != OutcomeDraw || recent[1].Turns != 12 {
		t.Errorf("second result: %+v", recent[1])
	}
	if !recent[1].CreatedAt.Equal(results[1].CreatedAt.Truncate(time.Microsecond)) {
		t.Errorf("created at: %s vs %s", recent[1].CreatedAt, results[1].CreatedAt)
	}

	page, err := store.Recent(ctx, 10, 2)
	if err != nil || len(page) != 1 || page[0].ID != results[0].ID {
		t.Fatalf("second page: %+v, %v", page, err)
	}
}

func TestResultStoreStandings(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for _, result := range []Result{
		{PlayerOne: "engine", PlayerTwo: "random", Outcome: OutcomePlayerOne},
		{PlayerOne: "engine", PlayerTwo: "random", Outcome: OutcomePlayerOne},
		{PlayerOne: "random", PlayerTwo: "engine", Outcome: OutcomeDraw},
		{PlayerOne: "lua:north", PlayerTwo: "engine", Outcome: OutcomePlayerTwo},
	} {
		if err := store.Save(ctx, result); err != nil {
			t.Fatal(err)
		}
	}

	standings, err := store.Standings(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := []Standing{
		{Name: "engine", Wins: 3, Losses: 0, Draws: 1},
		{Name: "lua:north", Wins: 0, Losses: 1, Draws: 0},
		{Name: "random", Wins: 0, Losses: 2, Draws: 1},
	}
	if len(standings) != len(want) {
		t.Fatalf("expected %d standings, got %+v", len(want), standings)
	}
	for i := range want {
		if standings[i] != want[i] {
			t.Errorf("standing %d: expected %+v, got %+v", i, want[i], standings[i])
		}
	}
}

func TestResultStorePrune(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	old := Result{PlayerOne: "a", PlayerTwo: "b", Outcome: OutcomeDraw, CreatedAt: time.Now().Add(-48 * time.Hour)}
	fresh := Result{PlayerOne: "a", PlayerTwo: "b", Outcome: OutcomeDraw}
	for _, result := range []Result{old, fresh} {
		if err := store.Save(ctx, result); err != nil {
			t.Fatal(err)
		}
	}

	deleted, err := store.PruneOlderThan(ctx, 24*time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 pruned result, got %d", deleted)
	}
	if count, _ := store.Count(ctx); count != 1 {
		t.Errorf("expected 1 result left, got %d", count)
	}
}
