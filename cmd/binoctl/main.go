package main

import "binocular/cmd/binoctl/commands"

func main() {
	commands.Execute()
}
