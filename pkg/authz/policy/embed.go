// Package policy holds the default capability model and policy.
package policy

import _ "embed"

//go:embed model.conf
var Model string

//go:embed policy.csv
var Policy string
