package main

import "github.com/skelfem/hdgcd/cmd"

func main() {
	cmd.Execute()
}
