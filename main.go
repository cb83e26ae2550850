package main

import "github.com/washday/washday/cmd"

func main() {
	cmd.Execute()
}
