/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package actions

import (
	"fmt"
	"os"
	"strings"

	"github.com/chainguard-dev/tf-report-action/pkg/steps"
)

// ResolveOutputs replaces stdout/stderr values that name an existing file
// with that file's contents. Steps that capture large output often write it
// to disk and expose only the path; the report packages only ever see text.
func ResolveOutputs(o *steps.Outputs) error {
	if o == nil {
		return nil
	}
	for _, field := range []*string{&o.Stdout, &o.Stderr} {
		resolved, err := resolveFile(*field)
		if err != nil {
			return err
		}
		*field = resolved
	}
	return nil
}

func resolveFile(v string) (string, error) {
	path := strings.TrimSpace(v)
	if path == "" || strings.ContainsAny(path, "\n\x00") {
		return v, nil
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		// Not a file path; treat the value as inline output.
		return v, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading step output file %s: %w", path, err)
	}
	return string(b), nil
}
