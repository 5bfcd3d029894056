package main

import "example.com/stream_signal/cli/cmd"

func main() {
	cmd.Execute()
}
