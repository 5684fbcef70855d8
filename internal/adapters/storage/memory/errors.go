package memory

import "neighborguard/internal/platform/apperr"

// ErrNotFound lo reconocen los services vía errors.Is(err, apperr.ErrNotFound).
var ErrNotFound = apperr.ErrNotFound
