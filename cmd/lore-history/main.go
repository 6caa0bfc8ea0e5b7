// Package main provides the lore-history CLI: compare two lorebook
// documents entry by entry, list the backups of a document with the
// uninformative ones hidden, take manual or smart auto snapshots and restore them.
//
// Commands:
//   - diff     : lore-history diff <left.json> <right.json> [--unified] [--all]
//   - history  : lore-history history <file.json> [--kind lorebook] [--strict] [--show-hidden] [--clear]
//   - snapshot : lore-history snapshot <file.json> [--label L] [--auto]
//   - restore  : lore-history restore <file.json> <backup> [--no-backup]
//   - stamp    : lore-history stamp <file.json>
//   - init     : lore-history init
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "ERROR:", err)
		os.Exit(1)
	}
}
