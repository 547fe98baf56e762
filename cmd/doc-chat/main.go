package main

import "github.com/andrew/doc-chat/cmd/doc-chat/cmd"

func main() {
	cmd.Execute()
}
