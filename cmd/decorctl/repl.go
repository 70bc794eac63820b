// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package main

import (
	"os"

	"github.com/mstarongithub/way2decor/repl"
	"github.com/mstarongithub/way2decor/util/wrappers"
	"github.com/sirupsen/logrus"
)

func replRunner(sh *shell) {
	// Give repl some wrappers around stdin and stdout so that it closes those instead of stdin & stdout themselves
	commandRepl := repl.NewRepl(wrappers.NewReaderWrapper(os.Stdin), wrappers.NewWriterWrapper(os.Stdout))
	commandRepl.Prompt = "decor> "
	sh.printer = func(line string) {
		if err := commandRepl.Println(line); err != nil {
			logrus.WithError(err).Debugln("Dropped trace line")
		}
	}
	logrus.Debugln("Starting repl")
	quitSent := false
	err := commandRepl.Run(func(input string, _ *repl.Repl) (string, error) {
		res := sh.Do(input)
		if input == "quit" {
			quitSent = true
			return res, repl.ErrQuit
		}
		return res, nil
	})
	if err != nil {
		logrus.WithError(err).Errorln("Repl stopped")
	}
	// Input ended without quit, e.g. on ctrl+d
	if !quitSent {
		sh.Do("quit")
	}
}
