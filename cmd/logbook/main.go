// Command logbook answers prompts with a tool-calling language model.
package main

import "github.com/logbook-ai/logbook/internal/cmd"

func main() {
	cmd.Execute()
}
