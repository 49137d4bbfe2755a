package domino

import "errors"

var (
	ErrInvalidPlayerCount = errors.New("invalid player count for this mode")
	ErrRoundNotStarted    = errors.New("round not started")
	ErrRoundOver          = errors.New("round already over")
	ErrNotYourTurn        = errors.New("not your turn")
	ErrInvalidTileIndex   = errors.New("invalid tile index")
	ErrIllegalPlacement   = errors.New("tile does not match either end")
	ErrPassWithLegalMove  = errors.New("cannot pass while holding a playable tile")
)
