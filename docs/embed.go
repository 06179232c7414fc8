// Copyright © 2024 The ELPS authors

// Package docs embeds the scoping reference for use by the CLI.
package docs

import _ "embed"

//go:embed scoping.md
var ScopingGuide string
