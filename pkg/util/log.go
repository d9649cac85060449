/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package util

import (
	"time"

	"github.com/hyperledger/aries-framework-go/pkg/common/log"
)

var logger = log.New("caduceus/retry")

// Logger is a backoff.Notify that reports each failed attempt.
func Logger(err error, wait time.Duration) {
	logger.Warnf("retrying in %s after error: %v", wait, err)
}
