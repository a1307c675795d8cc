// Command storectl runs maintenance tasks against the inventory database:
// applying the schema, seeding reference data and exporting reports.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
