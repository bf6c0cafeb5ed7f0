// Command sheetsync generates typed collections from spreadsheet tabs.
//
// This binary has no generated types linked in, so it can edit the project,
// load columns and generate code. Syncing data needs a binary that imports
// the generated packages; see package sheetsync.
package main

import "github.com/JonMunkholm/sheetsync"

func main() {
	sheetsync.Main()
}
