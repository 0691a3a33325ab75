package domain

import "fmt"

// ReconfigureRequest

type ReconfigureRequest interface {
	ActorRequest
	ReconfigureCommand() string
}

type ReconfigureRequestMixIn struct {
	ActorRequestMixIn
}

func (r ReconfigureRequestMixIn) ReconfigureCommand() string {
	return fmt.Sprintf("%T", r)
}

// ReconfigureResponse

type ReconfigureResponse interface {
	ActorResponse
	ReconfigureResponse() string
}

type ReconfigureResponseMixIn struct {
	ActorResponse
}

func (r ReconfigureResponseMixIn) ReconfigureResponse() string {
	return fmt.Sprintf("%T", r)
}

// Reconfigure commands

type SetScanIntervalRequest struct {
	ReconfigureRequestMixIn
	Seconds uint
}

type SetScanIntervalResponse struct {
	ReconfigureResponseMixIn
	Seconds uint
}

type GetScanIntervalRequest struct {
	ReconfigureRequestMixIn
}

type GetScanIntervalResponse struct {
	ReconfigureResponseMixIn
	Seconds uint
}

// ensure interface compliance
var _ ReconfigureRequest = (*SetScanIntervalRequest)(nil)
