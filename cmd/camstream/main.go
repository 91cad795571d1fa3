package main

import "github.com/visionlink/camstream/cmd/camstream/commands"

func main() {
	commands.Execute()
}
