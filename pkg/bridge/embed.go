package bridge

import _ "embed"

//go:embed index.html
var viewerHTML []byte
