package main

import "github.com/nijaru/yt-quiz/cmd"

func main() {
	cmd.Execute()
}
