// SPDX-License-Identifier: MPL-2.0

package main

import cmd "evb-cli/cmd/evb"

func main() {
	cmd.Execute()
}
