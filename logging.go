// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package qgg

import (
	"os"

	"github.com/mattn/go-isatty"
	log "github.com/sirupsen/logrus"
)

var logger = log.StandardLogger()

func init() {
	if !isatty.IsTerminal(os.Stderr.Fd()) {
		logger.Formatter = &log.TextFormatter{DisableTimestamp: true}
	}
}

// SetLogger lets an embedding program point kernel progress logging at its
// own logrus instance instead of the package default.
func SetLogger(l *log.Logger) {
	logger = l
}
