// Command tib2xxu converts raw calculator boot-code images into OS upgrade packages.
package main

import "github.com/oshokin/tib2xxu/cmd/tib2xxu/cmd"

func main() {
	cmd.Execute()
}
