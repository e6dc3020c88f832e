package csrf

import "errors"

var ErrNoKeys = errors.New("csrf: no keys provided")
