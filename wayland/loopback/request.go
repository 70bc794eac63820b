// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package loopback

import (
	"fmt"
	"strings"
)

// A request a client sent to the loopback server
type Request struct {
	Object string // Interface name of the target object
	ID     uint32 // Object id, 0 for the display itself
	Op     string
	Args   []any
}

func (r Request) String() string {
	args := make([]string, 0, len(r.Args))
	for _, a := range r.Args {
		args = append(args, fmt.Sprint(a))
	}
	return fmt.Sprintf("%s@%d.%s(%s)", r.Object, r.ID, r.Op, strings.Join(args, ", "))
}

// Is checks whether the request targets the given interface and opcode name
func (r Request) Is(object, op string) bool {
	return r.Object == object && r.Op == op
}

// IndexOf returns the position of the first request matching object and op
// at or after from, or -1
func IndexOf(requests []Request, from int, object, op string) int {
	for i := from; i < len(requests); i++ {
		if requests[i].Is(object, op) {
			return i
		}
	}
	return -1
}

// Count returns how many requests match object and op
func Count(requests []Request, object, op string) int {
	n := 0
	for _, r := range requests {
		if r.Is(object, op) {
			n++
		}
	}
	return n
}
