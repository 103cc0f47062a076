package main

import (
	"os"

	"github.com/supertx-labs/supertx-cli/internal/app"
)

func main() {
	os.Exit(app.NewRunner().Run(os.Args[1:]))
}
