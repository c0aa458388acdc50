package token

import "errors"

var (
	ErrUnsupportedDecimals     = errors.New("asset decimals below internal precision")
	ErrUnknownAsset            = errors.New("unknown asset")
	ErrDuplicateAsset          = errors.New("asset registered twice")
	ErrInsufficientBalance     = errors.New("insufficient balance")
	ErrInsufficientPoolBalance = errors.New("insufficient pool balance")
	ErrPoolAccount             = errors.New("pool account cannot transfer to itself")
)
