// SPDX-License-Identifier: MPL-2.0

// devhost provisions a Linux development host.
package main

import "github.com/devhost/devhost/cmd/devhost"

func main() {
	cmd.Execute()
}
