package repos

import (
	"testing"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/effectiveacceleration/marketplace/internal/db/models"
)

type JobRepositoryTestSuite struct {
	DBRepositoryTestSuite
}

func TestJobRepository(t *testing.T) {
	suite.Run(t, new(JobRepositoryTestSuite))
}

func (s *JobRepositoryTestSuite) TestCreate() {
	job := s.createTestJob()
	s.NotZero(job.ID)
}

func (s *JobRepositoryTestSuite) TestGetByID() {
	original := s.createTestJob()

	found, err := s.jobRepo.GetByID(s.ctx, original.ID)
	s.Require().NoError(err)
	s.Equal(original.ID, found.ID)
	s.Equal(original.Creator, found.Creator)
	s.Equal(models.Tags{"go", "ipfs"}, found.Tags)
	s.True(original.ContentRef.Equal(found.ContentRef))
	s.Equal(models.JobStateOpen, found.State)

	_, err = s.jobRepo.GetByID(s.ctx, 999)
	s.ErrorIs(err, gorm.ErrRecordNotFound)
}

func (s *JobRepositoryTestSuite) TestUpdateChecksRevision() {
	job := s.createTestJob()

	job.State = models.JobStateTaken
	job.Worker = s.address()
	job.Revision = 1
	s.Require().NoError(s.jobRepo.Update(s.ctx, job, 0))

	found, err := s.jobRepo.GetByID(s.ctx, job.ID)
	s.Require().NoError(err)
	s.Equal(models.JobStateTaken, found.State)
	s.Equal(job.Worker, found.Worker)
	s.Equal(uint64(1), found.Revision)

	// a writer holding the old revision loses
	job.Revision = 2
	err = s.jobRepo.Update(s.ctx, job, 0)
	s.ErrorIs(err, ErrRevisionConflict)
}

func (s *JobRepositoryTestSuite) TestUpdateWritesZeroValues() {
	job := s.createTestJob()
	job.Disputed = true
	job.Worker = s.address()
	job.Revision = 1
	s.Require().NoError(s.jobRepo.Update(s.ctx, job, 0))

	job.Disputed = false
	job.Worker = ""
	job.Revision = 2
	s.Require().NoError(s.jobRepo.Update(s.ctx, job, 1))

	found, err := s.jobRepo.GetByID(s.ctx, job.ID)
	s.Require().NoError(err)
	s.False(found.Disputed)
	s.Empty(found.Worker)
}

func (s *JobRepositoryTestSuite) TestListAndCount() {
	creator := s.address()
	first := s.createTestJobFor(creator)
	s.createTestJobFor(creator)
	s.createTestJob()

	jobs, err := s.jobRepo.List(s.ctx, models.JobFilter{Creator: creator}, &models.ListOptions{Limit: 10})
	s.Require().NoError(err)
	s.Len(jobs, 2)

	count, err := s.jobRepo.Count(s.ctx, models.JobFilter{})
	s.Require().NoError(err)
	s.Equal(int64(3), count)

	first.State = models.JobStateTaken
	first.Revision = 1
	s.Require().NoError(s.jobRepo.Update(s.ctx, first, 0))

	taken := models.JobStateTaken
	jobs, err = s.jobRepo.List(s.ctx, models.JobFilter{State: &taken}, &models.ListOptions{Limit: 10})
	s.Require().NoError(err)
	s.Require().Len(jobs, 1)
	s.Equal(first.ID, jobs[0].ID)

	jobs, err = s.jobRepo.List(s.ctx, models.JobFilter{Tag: "ipfs"}, &models.ListOptions{Limit: 10})
	s.Require().NoError(err)
	s.Len(jobs, 3)

	jobs, err = s.jobRepo.List(s.ctx, models.JobFilter{Tag: "rust"}, &models.ListOptions{Limit: 10})
	s.Require().NoError(err)
	s.Empty(jobs)

	jobs, err = s.jobRepo.List(s.ctx, models.JobFilter{}, &models.ListOptions{Limit: 2, Offset: 2})
	s.Require().NoError(err)
	s.Len(jobs, 1)
}

func (s *JobRepositoryTestSuite) TestTagFilterMatchesLiterally() {
	for _, tags := range []models.Tags{{"a_b"}, {"axb"}, {"50%"}, {"500"}, {`back\slash`}} {
		job := s.createTestJob()
		job.Tags = tags
		job.Revision = 1
		s.Require().NoError(s.jobRepo.Update(s.ctx, job, 0))
	}

	for tag, want := range map[string]int{"a_b": 1, "axb": 1, "50%": 1, "500": 1, `back\slash`: 1, "a%": 0, "_": 0} {
		jobs, err := s.jobRepo.List(s.ctx, models.JobFilter{Tag: tag}, &models.ListOptions{Limit: 10})
		s.Require().NoError(err)
		s.Len(jobs, want, tag)
	}
}

func (s *JobRepositoryTestSuite) TestWhitelist() {
	job := s.createTestJob()
	worker := s.address()
	other := s.address()

	s.Require().NoError(s.jobRepo.AddWhitelisted(s.ctx, job.ID, worker))
	s.ErrorIs(s.jobRepo.AddWhitelisted(s.ctx, job.ID, worker), ErrAlreadyExists)
	s.Require().NoError(s.jobRepo.AddWhitelisted(s.ctx, job.ID, other))

	ok, err := s.jobRepo.IsWhitelisted(s.ctx, job.ID, worker)
	s.Require().NoError(err)
	s.True(ok)

	count, err := s.jobRepo.CountWhitelisted(s.ctx, job.ID)
	s.Require().NoError(err)
	s.Equal(int64(2), count)

	s.Require().NoError(s.jobRepo.RemoveWhitelisted(s.ctx, job.ID, worker))
	s.ErrorIs(s.jobRepo.RemoveWhitelisted(s.ctx, job.ID, worker), gorm.ErrRecordNotFound)

	addrs, err := s.jobRepo.ListWhitelisted(s.ctx, job.ID)
	s.Require().NoError(err)
	s.Equal([]string{other}, addrs)
}
