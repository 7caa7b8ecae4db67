package main

import "github.com/K0NGR3SS/minewatch/commands"

func main() {
	commands.Execute()
}
