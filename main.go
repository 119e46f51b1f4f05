package main

import (
	"github.com/maokus/mvmnt/cmd"
)

func main() {
	cmd.Execute()
}
