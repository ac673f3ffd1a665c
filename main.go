package main

import "github.com/KaramelBytes/datasight/cmd"

func main() {
	cmd.Execute()
}
