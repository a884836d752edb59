// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package goes

import (
	"os"
	"path/filepath"
)

// ProgBase names the running binary in messages, "tofino-lld" when the
// executable can't be resolved.
func ProgBase() string {
	if fn, err := os.Executable(); err == nil {
		return filepath.Base(fn)
	}
	if len(os.Args) > 0 && len(os.Args[0]) > 0 {
		return filepath.Base(os.Args[0])
	}
	return "tofino-lld"
}
