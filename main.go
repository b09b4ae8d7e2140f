package main

import "ecg-viewer/cmd"

func main() {
	cmd.Execute()
}
