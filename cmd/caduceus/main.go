/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"github.com/caduceus-vc/caduceus/pkg/apiserver/cmd"
)

func main() {
	cmd.Execute()
}
