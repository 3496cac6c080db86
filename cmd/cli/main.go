package main

import "favmovies/cmd/cli/command"

func main() {
	command.Execute()
}
