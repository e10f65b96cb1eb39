package flag

import "errors"

var (
	ErrUnknownFlag       = errors.New("flag: unknown flag")
	ErrFlagDisabled      = errors.New("flag: flag is disabled")
	ErrFlagNotApplicable = errors.New("flag: flag does not apply to entity type")
	ErrAlreadyFlagged    = errors.New("flag: entity is already flagged by account")
	ErrNotFlagged        = errors.New("flag: entity is not flagged by account")
	ErrListenerFailed    = errors.New("flag: listener failed")
	ErrInvalidDefinition = errors.New("flag: invalid flag definition")
)
