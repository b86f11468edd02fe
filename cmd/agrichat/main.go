package main

import "agrichat/internal/commands"

func main() {
	commands.Execute()
}
