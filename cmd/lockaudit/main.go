/*
Copyright 2023 The OpenVEX Authors
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"

	"github.com/openvex/lockaudit/internal/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := cmd.New().ExecuteContext(ctx)
	if err == nil {
		return
	}

	if errors.Is(err, cmd.ErrVulnerabilitiesFound) {
		stop()
		os.Exit(1)
	}

	logrus.Error(err)
	stop()
	os.Exit(2)
}
