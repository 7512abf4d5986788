package main

import (
	"grindvault/cmd/grindvault/commands"
)

func main() {
	commands.Execute()
}
