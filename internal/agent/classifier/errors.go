package classifier

import "errors"

var (
	errNoJSON        = errors.New("no JSON object in classifier output")
	errBadComplexity = errors.New("unknown complexity level")
)
