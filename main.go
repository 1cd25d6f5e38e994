package main

import "github.com/chrisdamba/dispatchsim/cmd"

func main() {
	cmd.Execute()
}
