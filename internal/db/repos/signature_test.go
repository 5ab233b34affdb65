package repos

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/effectiveacceleration/marketplace/internal/db/models"
)

type SignatureRepositoryTestSuite struct {
	DBRepositoryTestSuite
}

func TestSignatureRepository(t *testing.T) {
	suite.Run(t, new(SignatureRepositoryTestSuite))
}

func (s *SignatureRepositoryTestSuite) TestConsumeOnce() {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	signer, other := s.address(), s.address()

	s.Require().NoError(s.signatureRepo.Consume(s.ctx, signer, "aa", now, now.Add(time.Minute)))
	s.ErrorIs(s.signatureRepo.Consume(s.ctx, signer, "aa", now, now.Add(time.Minute)), ErrAlreadyExists)

	// Other digests and other signers are independent
	s.Require().NoError(s.signatureRepo.Consume(s.ctx, signer, "bb", now, now.Add(time.Minute)))
	s.Require().NoError(s.signatureRepo.Consume(s.ctx, other, "aa", now, now.Add(time.Minute)))
}

func (s *SignatureRepositoryTestSuite) TestExpiredRecordsArePruned() {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	signer := s.address()

	s.Require().NoError(s.signatureRepo.Consume(s.ctx, signer, "aa", now, now.Add(time.Minute)))
	s.Require().NoError(s.signatureRepo.Consume(s.ctx, s.address(), "cc", now, now.Add(time.Minute)))

	later := now.Add(2 * time.Minute)
	s.Require().NoError(s.signatureRepo.Consume(s.ctx, signer, "aa", later, later.Add(time.Minute)))

	var count int64
	s.Require().NoError(s.db.Model(&models.UsedSignature{}).Count(&count).Error)
	s.Equal(int64(1), count)
}
