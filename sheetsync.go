// Package sheetsync is the embeddable entry point of the sheetsync tool.
//
// Generated record and collection types register themselves from init
// functions. A binary that syncs data blank-imports its generated packages
// and calls Main:
//
//	package main
//
//	import (
//		"github.com/JonMunkholm/sheetsync"
//
//		_ "example.com/game/data/Monsters/generated"
//	)
//
//	func main() { sheetsync.Main() }
package sheetsync

import (
	"context"
	"os"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/sheetsync/internal/cli"
)

// Main loads .env if present, runs the command line and exits.
// Variables already set in the environment take precedence over .env.
func Main() {
	_ = godotenv.Load()
	os.Exit(cli.Execute(context.Background(), os.Args[1:]))
}
