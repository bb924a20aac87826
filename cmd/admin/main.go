// Command main is the postshare operator CLI.
package main

import "postshare/cmd/admin/commands"

func main() {
	commands.Execute()
}
