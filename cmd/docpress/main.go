package main

import (
	"github.com/alecthomas/kong"

	"github.com/docpress/docpress/cmd/docpress/commands"
)

var version = "dev"

func main() {
	var cli commands.CLI
	ctx := kong.Parse(&cli,
		kong.Name("docpress"),
		kong.Description("Builds API documentation from Python docstrings and publishes it to a pages branch."),
		kong.UsageOnError(),
		kong.Vars{"version": version},
	)

	err := ctx.Run(&commands.Global{}, &cli)
	ctx.FatalIfErrorf(err)
}
