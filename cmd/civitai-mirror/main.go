package main

import (
	"go-civitai-mirror/cmd/civitai-mirror/cmd"
)

func main() {
	cmd.Execute()
}
