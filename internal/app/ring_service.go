// internal/app/ring_service.go
package app

import (
	"context"
	"fmt"

	"school_bell/internal/domain/ring"
	domainTelegram "school_bell/internal/domain/telegram"

	"github.com/sirupsen/logrus"
)

// RingService keeps the ring log and tells the admin about bells that failed
// to play. It is the engine's Recorder.
type RingService struct {
	ringRepo       ring.Repository
	telegramClient domainTelegram.Client // nil when no bot is configured
	adminChatID    int64
	logger         *logrus.Entry
}

func NewRingService(rr ring.Repository, tc domainTelegram.Client, adminChatID int64, logger *logrus.Entry) *RingService {
	return &RingService{
		ringRepo:       rr,
		telegramClient: tc,
		adminChatID:    adminChatID,
		logger:         logger,
	}
}

// RecordRing stores r. Failed and skipped rings are also sent to the admin;
// an alert that cannot be delivered is only logged.
func (s *RingService) RecordRing(ctx context.Context, r *ring.Ring) error {
	if err := s.ringRepo.Create(ctx, r); err != nil {
		return fmt.Errorf("failed to store ring: %w", err)
	}

	if s.telegramClient == nil {
		return nil
	}
	var text string
	switch r.Outcome {
	case ring.OutcomeFailed:
		text = fmt.Sprintf("⚠️ El timbre %s (%s, %s) no pudo sonar a las %s.\nArchivo: %s\nError: %s",
			r.SlotName, r.Period, r.Trigger(), r.Minute, r.AudioPath, r.Error.String)
	case ring.OutcomeSkipped:
		text = fmt.Sprintf("⚠️ El timbre %s (%s, %s) no sonó a las %s: no se encuentra el archivo %s.",
			r.SlotName, r.Period, r.Trigger(), r.Minute, r.AudioPath)
	default:
		return nil
	}
	if err := s.telegramClient.SendMessage(s.adminChatID, text, nil); err != nil {
		s.logger.WithError(err).WithField("ring_id", r.ID).Warn("Failed to alert admin about failed ring")
	}
	return nil
}
