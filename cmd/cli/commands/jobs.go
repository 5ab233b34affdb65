package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/effectiveacceleration/marketplace/internal/db/models"
	"github.com/effectiveacceleration/marketplace/pkg/api/v1/handlers"
	"github.com/effectiveacceleration/marketplace/pkg/contentref"
)

// Flag names
const (
	flagTitle              = "title"
	flagTag                = "tag"
	flagContent            = "content"
	flagToken              = "token"
	flagAmount             = "amount"
	flagMaxTime            = "max-time"
	flagDeliveryMethod     = "delivery-method"
	flagMultipleApplicants = "multiple-applicants"
	flagArbitrator         = "arbitrator"
	flagWhitelist          = "whitelist"
	flagState              = "state"
	flagCreator            = "creator"
	flagWorker             = "worker"
	flagPage               = "page"
	flagLimit              = "limit"
	flagStart              = "start"
	flagEnd                = "end"
	flagResult             = "result"
	flagRating             = "rating"
	flagReview             = "review"
	flagReason             = "reason"
	flagRecipient          = "recipient"
	flagCreatorShare       = "creator-share"
	flagWorkerShare        = "worker-share"
)

func mustMarkRequired(cmd *cobra.Command, names ...string) {
	for _, name := range names {
		if err := cmd.MarkFlagRequired(name); err != nil {
			panic(fmt.Errorf("failed to mark %s flag as required for %s command: %w", name, cmd.Name(), err))
		}
	}
}

// refFlag reads a content reference flag
func refFlag(cmd *cobra.Command, name string) (contentref.Ref, error) {
	s, err := cmd.Flags().GetString(name)
	if err != nil {
		return nil, fmt.Errorf("error getting %s flag: %w", name, err)
	}
	ref, err := contentref.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", name, err)
	}
	return ref, nil
}

// jobCommand builds a subcommand taking a job id and printing the resulting job
func jobCommand(use, short string, call func(ctx context.Context, cmd *cobra.Command, id uint) (models.Job, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <job-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseJobID(args[0])
			if err != nil {
				return err
			}
			job, err := call(cmd.Context(), cmd, id)
			if err != nil {
				return fmt.Errorf("error running %s on job %d: %w", use, id, err)
			}
			return printOne(cmd, jobColumns, job)
		},
	}
}

func newPostJobCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "post",
		Short: "Post a new job and escrow its payment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			content, err := refFlag(cmd, flagContent)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			title, _ := flags.GetString(flagTitle)
			tags, _ := flags.GetStringSlice(flagTag)
			token, _ := flags.GetString(flagToken)
			amount, _ := flags.GetUint64(flagAmount)
			maxTime, _ := flags.GetDuration(flagMaxTime)
			method, _ := flags.GetString(flagDeliveryMethod)
			multiple, _ := flags.GetBool(flagMultipleApplicants)
			arbitrator, _ := flags.GetString(flagArbitrator)
			whitelist, _ := flags.GetStringSlice(flagWhitelist)

			job, err := apiClient.PostJob(cmd.Context(), handlers.JobPostParams{
				Title:              title,
				Tags:               tags,
				ContentRef:         content,
				Token:              token,
				Amount:             amount,
				MaxTime:            uint32(maxTime / time.Second),
				DeliveryMethod:     method,
				MultipleApplicants: multiple,
				Arbitrator:         arbitrator,
				Whitelist:          whitelist,
			})
			if err != nil {
				return fmt.Errorf("error posting job: %w", err)
			}
			return printOne(cmd, jobColumns, job)
		},
	}
	cmd.Flags().StringP(flagTitle, "t", "", "Job title")
	cmd.Flags().StringSlice(flagTag, nil, "Job tag (repeatable)")
	cmd.Flags().StringP(flagContent, "c", "", "Content reference of the job description (CID or 0x-hex)")
	cmd.Flags().String(flagToken, "", "Payment token")
	cmd.Flags().Uint64P(flagAmount, "a", 0, "Payment amount")
	cmd.Flags().Duration(flagMaxTime, 24*time.Hour, "Time the worker has to deliver")
	cmd.Flags().String(flagDeliveryMethod, "", "Delivery method")
	cmd.Flags().Bool(flagMultipleApplicants, false, "Collect applications instead of first-come-first-served")
	cmd.Flags().String(flagArbitrator, "", "Arbitrator address")
	cmd.Flags().StringSlice(flagWhitelist, nil, "Whitelisted worker address (repeatable)")
	mustMarkRequired(cmd, flagContent, flagToken, flagAmount)
	return cmd
}

func newListJobsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			params := handlers.JobListParams{}
			params.State, _ = flags.GetString(flagState)
			params.Creator, _ = flags.GetString(flagCreator)
			params.Worker, _ = flags.GetString(flagWorker)
			params.Arbitrator, _ = flags.GetString(flagArbitrator)
			params.Tag, _ = flags.GetString(flagTag)
			params.Page, _ = flags.GetInt(flagPage)
			params.Limit, _ = flags.GetInt(flagLimit)

			jobs, err := apiClient.ListJobs(cmd.Context(), params)
			if err != nil {
				return fmt.Errorf("error listing jobs: %w", err)
			}
			return printList(cmd, jobColumns, jobs.Rows)
		},
	}
	cmd.Flags().String(flagState, "", "Filter by state: open, taken or closed")
	cmd.Flags().String(flagCreator, "", "Filter by creator address")
	cmd.Flags().String(flagWorker, "", "Filter by worker address")
	cmd.Flags().String(flagArbitrator, "", "Filter by arbitrator address")
	cmd.Flags().String(flagTag, "", "Filter by tag")
	cmd.Flags().IntP(flagPage, "p", 1, "Page number for pagination")
	cmd.Flags().IntP(flagLimit, "l", 0, "Page size")
	return cmd
}

func newJobEventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events <job-id>",
		Short: "Show the event log of a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseJobID(args[0])
			if err != nil {
				return err
			}
			start, _ := cmd.Flags().GetUint64(flagStart)
			end, _ := cmd.Flags().GetUint64(flagEnd)

			events, err := apiClient.GetJobEvents(cmd.Context(), id, start, end)
			if err != nil {
				return fmt.Errorf("error getting events of job %d: %w", id, err)
			}
			return printList(cmd, eventColumns, events.Events)
		},
	}
	cmd.Flags().Uint64(flagStart, 0, "First event index")
	cmd.Flags().Uint64(flagEnd, 0, "End event index, exclusive (0 for all)")
	return cmd
}

func newUpdateJobCmd() *cobra.Command {
	cmd := jobCommand("update", "Change the title and tags of an open job", func(ctx context.Context, cmd *cobra.Command, id uint) (models.Job, error) {
		title, _ := cmd.Flags().GetString(flagTitle)
		tags, _ := cmd.Flags().GetStringSlice(flagTag)
		return apiClient.UpdateJob(ctx, handlers.JobUpdateParams{JobID: id, Title: title, Tags: tags})
	})
	cmd.Flags().StringP(flagTitle, "t", "", "New job title")
	cmd.Flags().StringSlice(flagTag, nil, "Job tag (repeatable)")
	mustMarkRequired(cmd, flagTitle)
	return cmd
}

func newApplyJobCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "apply <job-id>",
		Short: "Apply for a multiple-applicant job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseJobID(args[0])
			if err != nil {
				return err
			}
			if err := apiClient.ApplyForJob(cmd.Context(), id); err != nil {
				return fmt.Errorf("error applying for job %d: %w", id, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied for job %d\n", id)
			return nil
		},
	}
}

func newPayStartJobCmd() *cobra.Command {
	cmd := jobCommand("start", "Start a multiple-applicant job with an applicant", func(ctx context.Context, cmd *cobra.Command, id uint) (models.Job, error) {
		worker, _ := cmd.Flags().GetString(flagWorker)
		return apiClient.PayStartJob(ctx, handlers.JobWorkerParams{JobID: id, Worker: worker})
	})
	cmd.Flags().StringP(flagWorker, "w", "", "Applicant address")
	mustMarkRequired(cmd, flagWorker)
	return cmd
}

func newDeliverJobCmd() *cobra.Command {
	cmd := jobCommand("deliver", "Deliver the result of a taken job", func(ctx context.Context, cmd *cobra.Command, id uint) (models.Job, error) {
		ref, err := refFlag(cmd, flagResult)
		if err != nil {
			return models.Job{}, err
		}
		return apiClient.DeliverResult(ctx, handlers.JobRefParams{JobID: id, Ref: ref})
	})
	cmd.Flags().StringP(flagResult, "r", "", "Content reference of the result")
	mustMarkRequired(cmd, flagResult)
	return cmd
}

func newCloseJobCmd() *cobra.Command {
	cmd := jobCommand("close", "Accept the work and pay the worker", func(ctx context.Context, cmd *cobra.Command, id uint) (models.Job, error) {
		rating, _ := cmd.Flags().GetUint8(flagRating)
		review, _ := cmd.Flags().GetString(flagReview)
		return apiClient.CloseJob(ctx, handlers.JobCloseParams{JobID: id, Rating: rating, Review: review})
	})
	cmd.Flags().Uint8(flagRating, 0, "Rate the worker from 1 to 5 (0 to skip)")
	cmd.Flags().String(flagReview, "", "Review text")
	return cmd
}

func newDisputeJobCmd() *cobra.Command {
	cmd := jobCommand("dispute", "Raise a dispute on a taken job", func(ctx context.Context, cmd *cobra.Command, id uint) (models.Job, error) {
		ref, err := refFlag(cmd, flagContent)
		if err != nil {
			return models.Job{}, err
		}
		return apiClient.DisputeJob(ctx, handlers.JobRefParams{JobID: id, Ref: ref})
	})
	cmd.Flags().StringP(flagContent, "c", "", "Content reference of the dispute statement")
	return cmd
}

func newArbitrateJobCmd() *cobra.Command {
	cmd := jobCommand("arbitrate", "Settle a disputed job", func(ctx context.Context, cmd *cobra.Command, id uint) (models.Job, error) {
		creatorShare, _ := cmd.Flags().GetUint32(flagCreatorShare)
		workerShare, _ := cmd.Flags().GetUint32(flagWorkerShare)
		reason, err := refFlag(cmd, flagReason)
		if err != nil {
			return models.Job{}, err
		}
		return apiClient.ArbitrateJob(ctx, handlers.JobArbitrateParams{
			JobID:           id,
			CreatorShareBps: creatorShare,
			WorkerShareBps:  workerShare,
			ReasonRef:       reason,
		})
	})
	cmd.Flags().Uint32(flagCreatorShare, 0, "Creator share in basis points")
	cmd.Flags().Uint32(flagWorkerShare, 0, "Worker share in basis points")
	cmd.Flags().String(flagReason, "", "Content reference of the ruling")
	mustMarkRequired(cmd, flagCreatorShare, flagWorkerShare)
	return cmd
}

func newMessageJobCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "message <job-id>",
		Short: "Post a message on a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseJobID(args[0])
			if err != nil {
				return err
			}
			content, err := refFlag(cmd, flagContent)
			if err != nil {
				return err
			}
			recipient, _ := cmd.Flags().GetString(flagRecipient)
			if err := apiClient.PostMessage(cmd.Context(), handlers.JobMessageParams{
				JobID:      id,
				ContentRef: content,
				Recipient:  recipient,
			}); err != nil {
				return fmt.Errorf("error posting message on job %d: %w", id, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Message posted on job %d\n", id)
			return nil
		},
	}
	cmd.Flags().StringP(flagContent, "c", "", "Content reference of the message")
	cmd.Flags().String(flagRecipient, "", "Recipient address")
	mustMarkRequired(cmd, flagContent)
	return cmd
}

func newRateJobCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rate <job-id>",
		Short: "Review the other party of a finished job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseJobID(args[0])
			if err != nil {
				return err
			}
			rating, _ := cmd.Flags().GetUint8(flagRating)
			text, _ := cmd.Flags().GetString(flagReview)
			review, err := apiClient.RateJob(cmd.Context(), handlers.JobRateParams{JobID: id, Rating: rating, Review: text})
			if err != nil {
				return fmt.Errorf("error rating job %d: %w", id, err)
			}
			return printOne(cmd, reviewColumns, review)
		},
	}
	cmd.Flags().Uint8(flagRating, 0, "Rating from 1 to 5")
	cmd.Flags().String(flagReview, "", "Review text")
	mustMarkRequired(cmd, flagRating)
	return cmd
}

func newWhitelistCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "whitelist",
		Short: "Manage the workers allowed to take a job",
	}

	list := &cobra.Command{
		Use:   "list <job-id>",
		Short: "List whitelisted workers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseJobID(args[0])
			if err != nil {
				return err
			}
			whitelist, err := apiClient.GetWhitelist(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("error getting whitelist of job %d: %w", id, err)
			}
			return printList(cmd, whitelistColumns, whitelist.Addresses)
		},
	}

	change := func(use, short string, add bool) *cobra.Command {
		c := &cobra.Command{
			Use:   use + " <job-id>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseJobID(args[0])
				if err != nil {
					return err
				}
				worker, _ := cmd.Flags().GetString(flagWorker)
				params := handlers.JobWorkerParams{JobID: id, Worker: worker}
				call := apiClient.RemoveWhitelistedWorker
				if add {
					call = apiClient.AddWhitelistedWorker
				}
				whitelist, err := call(cmd.Context(), params)
				if err != nil {
					return fmt.Errorf("error updating whitelist of job %d: %w", id, err)
				}
				return printList(cmd, whitelistColumns, whitelist.Addresses)
			},
		}
		c.Flags().StringP(flagWorker, "w", "", "Worker address")
		mustMarkRequired(c, flagWorker)
		return c
	}

	cmd.AddCommand(list)
	cmd.AddCommand(change("add", "Whitelist a worker", true))
	cmd.AddCommand(change("remove", "Remove a worker from the whitelist", false))
	return cmd
}

// GetJobsCmd returns the jobs command
func GetJobsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Manage jobs",
	}

	cmd.AddCommand(newPostJobCmd())
	cmd.AddCommand(newListJobsCmd())
	cmd.AddCommand(jobCommand("get", "Get a job", func(ctx context.Context, _ *cobra.Command, id uint) (models.Job, error) {
		return apiClient.GetJob(ctx, id)
	}))
	cmd.AddCommand(newJobEventsCmd())
	cmd.AddCommand(newUpdateJobCmd())
	cmd.AddCommand(jobCommand("take", "Take an open job", func(ctx context.Context, _ *cobra.Command, id uint) (models.Job, error) {
		return apiClient.TakeJob(ctx, id)
	}))
	cmd.AddCommand(newApplyJobCmd())
	cmd.AddCommand(newPayStartJobCmd())
	cmd.AddCommand(newDeliverJobCmd())
	cmd.AddCommand(newCloseJobCmd())
	cmd.AddCommand(jobCommand("refund", "Refund a job to its creator", func(ctx context.Context, _ *cobra.Command, id uint) (models.Job, error) {
		return apiClient.Refund(ctx, id)
	}))
	cmd.AddCommand(jobCommand("reopen", "Reopen a refunded job", func(ctx context.Context, _ *cobra.Command, id uint) (models.Job, error) {
		return apiClient.ReopenJob(ctx, id)
	}))
	cmd.AddCommand(jobCommand("withdraw-collateral", "Withdraw collateral held after an early refund", func(ctx context.Context, _ *cobra.Command, id uint) (models.Job, error) {
		return apiClient.WithdrawCollateral(ctx, id)
	}))
	cmd.AddCommand(newDisputeJobCmd())
	cmd.AddCommand(newArbitrateJobCmd())
	cmd.AddCommand(jobCommand("refuse", "Refuse to arbitrate a job", func(ctx context.Context, _ *cobra.Command, id uint) (models.Job, error) {
		return apiClient.RefuseArbitration(ctx, id)
	}))
	cmd.AddCommand(newMessageJobCmd())
	cmd.AddCommand(newRateJobCmd())
	cmd.AddCommand(newWhitelistCmd())
	return cmd
}
