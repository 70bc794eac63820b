// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package util

import (
	"errors"
	"strings"
)

var ErrUnterminatedQuote = errors.New("unterminated quote")

// Unpacks a slice into arguments
// Variables without a matching element and elements without a matching variable are left alone
func Unpack[T any](toUnpack []T, unpackInto ...*T) {
	for i := 0; i < len(toUnpack) && i < len(unpackInto); i++ {
		*unpackInto[i] = toUnpack[i]
	}
}

// SplitArgs splits a command line at spaces. Double quotes group words,
// so `title 1 "Hello world"` gives three arguments
func SplitArgs(line string) ([]string, error) {
	var (
		args    []string
		current strings.Builder
		inQuote bool
		started bool
	)
	for _, r := range line {
		switch {
		case r == '"':
			inQuote = !inQuote
			started = true
		case r == ' ' && !inQuote:
			if started {
				args = append(args, current.String())
				current.Reset()
				started = false
			}
		default:
			current.WriteRune(r)
			started = true
		}
	}
	if inQuote {
		return nil, ErrUnterminatedQuote
	}
	if started {
		args = append(args, current.String())
	}
	return args, nil
}
