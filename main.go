package main

import (
	"github.com/cleansine/wasapi-exclusive/cmd"
	"github.com/cleansine/wasapi-exclusive/internal/recovery"
)

func main() {
	defer recovery.HandlePanic()
	cmd.Execute()
}
