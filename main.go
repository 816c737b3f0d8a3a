package main

import "github.com/brgilsonsp/corrida-familia-piba-front/cmd"

func main() {
	cmd.Execute()
}
