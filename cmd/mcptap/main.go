// mcptap CLI entry point
//
// mcptap talks to Model Context Protocol tool servers: it lists their
// tools, inspects input schemas, invokes tools with coerced parameters,
// and fuzzes tool parameters with a wordlist.
package main

import "github.com/mcptap/mcptap/internal/presentation/cli/commands"

func main() {
	commands.Execute()
}
