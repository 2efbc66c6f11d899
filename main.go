package main

import "github.com/mjaros/chatterm/cmd"

func main() {
	cmd.Execute()
}
