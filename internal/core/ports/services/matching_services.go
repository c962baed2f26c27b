package services

import (
	"context"

	"github.com/SscSPs/bank_reconciliation/internal/dto"
)

// MatchingReaderSvc defines read operations of the matching engine
type MatchingReaderSvc interface {
	// Candidates returns the ranked candidate movements of a line.
	Candidates(ctx context.Context, lineID string) (*dto.ListCandidatesResponse, error)
}

// MatchingWriterSvc defines the matching engine's mutations
type MatchingWriterSvc interface {
	// AutoMatch runs the auto-match policy over the period's UNMATCHED lines.
	AutoMatch(ctx context.Context, periodID string, userID string, idempotencyKey string) (*dto.AutoMatchResponse, error)

	// ManualMatch links a line to movements whose amounts add up to the line amount exactly.
	ManualMatch(ctx context.Context, lineID string, req dto.ManualMatchRequest, userID string, idempotencyKey string) (*dto.MatchLinkResponse, error)

	// Unmatch removes a line's active link and reverts both sides.
	Unmatch(ctx context.Context, lineID string, userID string, idempotencyKey string) (*dto.UnmatchResponse, error)
}

// MatchingSvcFacade combines all matching service interfaces
type MatchingSvcFacade interface {
	MatchingReaderSvc
	MatchingWriterSvc
}
