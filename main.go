// Copyright 2024 kcstack authors
// Licensed under the BSD 3-Clause License.
// SPDX-License-Identifier: BSD-3-Clause

package main

import "github.com/kcstack/kcstack/cmd"

func main() {
	cmd.Execute()
}
