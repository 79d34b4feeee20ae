package main

import (
	. "github.com/saylorsolutions/modmake"
)

const (
	passhashVersion = "0.1.0"
)

func main() {
	b := NewBuild()
	b.Generate().DependsOnRunner("tidy", "", Go().ModTidy())

	passhash := NewAppBuild("passhash", "cmd/passhash", passhashVersion)
	passhash.Build(func(gb *GoBuild) {
		gb.
			StripDebugSymbols().
			SetVariable("main", "version", passhashVersion).
			CgoEnabled(false)
	})
	passhash.Variant("windows", "amd64")
	passhash.Variant("linux", "amd64")
	passhash.Variant("linux", "arm64")
	passhash.Variant("darwin", "amd64")
	passhash.Variant("darwin", "arm64")
	b.ImportApp(passhash)

	b.Execute()
}
