package main

import "github.com/frahmantamala/emspay-gateway/cmd"

func main() {
	cmd.Execute()
}
