// Lightcycle is a move engine for two-player lightbike games, with a judge
// server, an arena for playing strategies against each other, and an ssh
// spectator.
//
// Usage:
//
//	# Decide one turn from a JSON snapshot
//	lightcycle decide < turn.json
//
//	# Play the engine against a scripted opponent
//	lightcycle arena --opponent lua:greedy --games 50
//
//	# Watch a match in the terminal
//	lightcycle watch
//
//	# Serve the judge API and the ssh spectator
//	lightcycle serve --config lightcycle.yaml
package main

func main() {
	Execute()
}
