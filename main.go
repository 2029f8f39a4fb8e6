package main

import (
	"github.com/leighmacdonald/ipreview/internal/cmd"
)

func main() {
	cmd.Execute()
}
