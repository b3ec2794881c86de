package main

import "github.com/strrl/text-summarizer/cmd/text-summarizer/commands"

func main() {
	commands.Execute()
}
