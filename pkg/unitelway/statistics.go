// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package unitelway

import (
	"errors"
	"fmt"
	"time"
)

// Statistics tracks bus traffic and error rates
type Statistics struct {
	StartTime      time.Time
	LastUpdateTime time.Time

	// Counters
	TotalEvents    uint64
	Polls          uint64
	Frames         uint64
	Acks           uint64
	Naks           uint64
	ChecksumErrors uint64
	DecodeErrors   uint64
	RefusedRoutes  uint64
	FailedRequests uint64

	// Rates (calculated)
	EventRate float64 // events/sec
	ErrorRate float64 // errors/sec
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	now := time.Now()
	return &Statistics{
		StartTime:      now,
		LastUpdateTime: now,
	}
}

// Update counts one decoder result
func (s *Statistics) Update(ev *Event, decodeErr error) {
	s.LastUpdateTime = time.Now()

	if decodeErr != nil {
		s.TotalEvents++
		var ce *ChecksumError
		if errors.As(decodeErr, &ce) {
			s.ChecksumErrors++
		} else {
			s.DecodeErrors++
		}
		return
	}
	if ev == nil {
		return
	}

	s.TotalEvents++
	switch ev.Kind() {
	case EventPoll:
		s.Polls++
	case EventAck:
		s.Acks++
	case EventNak:
		s.Naks++
	case EventFrame:
		s.Frames++
		u, err := ev.Unite()
		switch {
		case errors.Is(err, ErrRoutingRefused):
			s.RefusedRoutes++
		case err != nil:
			s.DecodeErrors++
		case len(u) > 0 && u[0] == UniteFailure:
			s.FailedRequests++
		}
	}
}

// Errors returns the number of frames that could not be used
func (s *Statistics) Errors() uint64 {
	return s.ChecksumErrors + s.DecodeErrors + s.Naks
}

// CalculateRates calculates event and error rates
func (s *Statistics) CalculateRates() {
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed > 0 {
		s.EventRate = float64(s.TotalEvents) / elapsed
		s.ErrorRate = float64(s.Errors()) / elapsed
	}
}

// String returns a formatted statistics summary
func (s *Statistics) String() string {
	s.CalculateRates()

	var errorPercent float64
	if s.TotalEvents > 0 {
		errorPercent = float64(s.Errors()) * 100.0 / float64(s.TotalEvents)
	}

	elapsed := time.Since(s.StartTime)

	result := fmt.Sprintf("=== Statistics (%.0f seconds) ===\n", elapsed.Seconds())
	result += fmt.Sprintf("Total Events:    %8d\n", s.TotalEvents)
	result += fmt.Sprintf("Polls:           %8d\n", s.Polls)
	result += fmt.Sprintf("Frames:          %8d\n", s.Frames)
	result += fmt.Sprintf("Acks:            %8d\n", s.Acks)

	if s.Naks > 0 {
		result += fmt.Sprintf("Naks:            %8d\n", s.Naks)
	}
	if s.ChecksumErrors > 0 {
		result += fmt.Sprintf("BCC Errors:      %8d\n", s.ChecksumErrors)
	}
	if s.DecodeErrors > 0 {
		result += fmt.Sprintf("Decode Errors:   %8d\n", s.DecodeErrors)
	}
	if s.RefusedRoutes > 0 {
		result += fmt.Sprintf("Refused Routes:  %8d\n", s.RefusedRoutes)
	}
	if s.FailedRequests > 0 {
		result += fmt.Sprintf("Failed Requests: %8d\n", s.FailedRequests)
	}

	result += fmt.Sprintf("Error Share:     %8.1f%%\n", errorPercent)
	result += fmt.Sprintf("Event Rate:      %8.1f events/sec\n", s.EventRate)
	result += fmt.Sprintf("Error Rate:      %8.1f errors/sec\n", s.ErrorRate)
	result += "================================\n"

	return result
}

// Reset resets all statistics counters
func (s *Statistics) Reset() {
	*s = *NewStatistics()
}
