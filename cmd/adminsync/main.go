// Command adminsync keeps the admin dashboard analytics in sync with the
// backend and exposes user moderation from the terminal.
package main

import (
	"context"
	"os"

	"github.com/faceofmind/admin-sync/internal/cli"
)

func main() {
	os.Exit(cli.Execute(context.Background()))
}
