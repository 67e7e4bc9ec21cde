package main

import "github.com/theirongolddev/tutstat/cmd"

func main() {
	cmd.Execute()
}
