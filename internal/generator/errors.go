package generator

import "errors"

var (
	ErrWeightsUnavailable = errors.New("weights unavailable")
	ErrIndexOutOfRange    = errors.New("index out of range")
	ErrLatentShape        = errors.New("latent has wrong length")
	ErrTensorShape        = errors.New("tensor shape mismatch")
)
