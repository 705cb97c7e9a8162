package main

import "github.com/olivier-w/vivid/cmd"

func main() {
	cmd.Main()
}
