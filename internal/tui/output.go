package tui

import (
	"io"
	"os"
)

// output is where the progress view is drawn. Stdout stays free for results.
var output io.Writer = os.Stderr
