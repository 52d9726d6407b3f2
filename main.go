package main

import "tokenwatch/cmd"

func main() {
	cmd.Execute()
}
