package main

import "github.com/jsphweid/perfgrade/cmd"

func main() {
	cmd.Execute()
}
