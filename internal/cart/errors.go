package cart

import "errors"

// ErrSaveFailed is returned by mutating operations when the new state was
// applied in memory but could not be written to the repository.
var ErrSaveFailed = errors.New("cart changed but could not be saved")
