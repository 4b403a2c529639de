package main

import "github.com/Eursukkul/hotel-booking/cmd"

func main() {
	cmd.Execute()
}
