package repos

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/effectiveacceleration/marketplace/internal/db/dbtest"
	"github.com/effectiveacceleration/marketplace/internal/db/models"
	"github.com/effectiveacceleration/marketplace/pkg/contentref"
)

const testCID = "QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG"

// DBRepositoryTestSuite provides a base test suite for repository tests
type DBRepositoryTestSuite struct {
	suite.Suite
	db             *gorm.DB
	ctx            context.Context
	jobRepo        *JobRepository
	eventRepo      *EventRepository
	userRepo       *UserRepository
	arbitratorRepo *ArbitratorRepository
	reviewRepo     *ReviewRepository
	ledgerRepo     *LedgerRepository
	signatureRepo  *SignatureRepository
	counter        int
}

func (s *DBRepositoryTestSuite) SetupTest() {
	s.db = dbtest.New(s.T())
	s.jobRepo = NewJobRepository(s.db)
	s.eventRepo = NewEventRepository(s.db)
	s.userRepo = NewUserRepository(s.db)
	s.arbitratorRepo = NewArbitratorRepository(s.db)
	s.reviewRepo = NewReviewRepository(s.db)
	s.ledgerRepo = NewLedgerRepository(s.db)
	s.signatureRepo = NewSignatureRepository(s.db)
	s.ctx = context.Background()
}

// address returns a fresh well-formed address
func (s *DBRepositoryTestSuite) address() string {
	s.counter++
	return fmt.Sprintf("0x%040x", s.counter)
}

// Helper methods for creating test data

func (s *DBRepositoryTestSuite) createTestJob() *models.Job {
	return s.createTestJobFor(s.address())
}

func (s *DBRepositoryTestSuite) createTestJobFor(creator string) *models.Job {
	now := time.Now()
	job := &models.Job{
		Creator:        creator,
		Title:          "test-job",
		Tags:           models.Tags{"go", "ipfs"},
		ContentRef:     contentref.MustParse(testCID),
		Token:          "0xtoken",
		Amount:         100,
		MaxTime:        3600,
		DeliveryMethod: "ipfs",
		State:          models.JobStateOpen,
		OpenedAt:       now,
		StateChangedAt: now,
	}
	s.Require().NoError(s.jobRepo.Create(s.ctx, job))
	return job
}

// TestDBRepository runs the test suite for the DBRepository to verify no panic
func TestDBRepository(t *testing.T) {
	suite.Run(t, new(DBRepositoryTestSuite))
}
