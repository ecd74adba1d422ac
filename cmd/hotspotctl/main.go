package main

import "github.com/prahasith1996/video-player/internal/cli"

func main() {
	cli.Execute()
}
