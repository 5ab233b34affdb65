package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/effectiveacceleration/marketplace/internal/db/models"
	"github.com/effectiveacceleration/marketplace/pkg/api/v1/client"
	"github.com/effectiveacceleration/marketplace/test"
)

const (
	jobContent    = "QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG"
	resultContent = "QmT78zSuBmuS4z925WZfrqQ1qHaJ56DQaTfyMUF7F8ff5o"
)

// setupCommands creates a fresh command tree without the client bootstrapping of RootCmd
func setupCommands() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "eacc",
		Short:         "Marketplace CLI tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	addOutputFlag(cmd)
	cmd.AddCommand(GetJobsCmd())
	cmd.AddCommand(GetUsersCmd())
	cmd.AddCommand(GetArbitratorsCmd())
	cmd.AddCommand(GetBalanceCmd())
	return cmd
}

// run executes args against c and returns the captured output
func run(t *testing.T, c client.Client, args ...string) (string, error) {
	t.Helper()

	// Store the original client and restore it after the command
	originalClient := apiClient
	apiClient = c
	defer func() { apiClient = originalClient }()

	buf := new(bytes.Buffer)
	cmd := setupCommands()
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// runJSON executes args with JSON output and decodes the result into v
func runJSON(t *testing.T, c client.Client, v interface{}, args ...string) {
	t.Helper()
	out, err := run(t, c, append(args, "-o", "json")...)
	require.NoError(t, err, out)
	require.NoError(t, json.Unmarshal([]byte(out), v), "Response is not valid JSON: %s", out)
}

func postJobArgs(amount uint64) []string {
	return []string{
		"jobs", "post",
		"--title", "translate a document",
		"--tag", "translation",
		"--content", jobContent,
		"--token", test.Token,
		"--amount", fmt.Sprintf("%d", amount),
		"--max-time", "1h",
	}
}

func TestJobCommandsLifecycle(t *testing.T) {
	suite := test.NewSuite(t)
	defer suite.Cleanup()

	creator := suite.NewAccount(100)
	worker := suite.NewAccount(0)

	var job models.Job
	runJSON(t, creator, &job, postJobArgs(100)...)
	assert.Equal(t, uint(1), job.ID)
	assert.Equal(t, "translate a document", job.Title)
	assert.Equal(t, uint32(3600), job.MaxTime)
	assert.Equal(t, models.Tags{"translation"}, job.Tags)

	runJSON(t, worker, &job, "jobs", "take", "1")
	assert.Equal(t, models.JobStateTaken, job.State)
	assert.Equal(t, worker.Address(), job.Worker)

	runJSON(t, worker, &job, "jobs", "deliver", "1", "--result", resultContent)
	assert.Equal(t, models.JobPhaseResultDelivered, job.Phase())

	runJSON(t, creator, &job, "jobs", "close", "1", "--rating", "5", "--review", "great")
	assert.Equal(t, models.JobPhaseCompleted, job.Phase())
	assert.Equal(t, uint64(81), suite.Balance(worker.Address()))

	var events []models.JobEvent
	runJSON(t, worker, &events, "jobs", "events", "1")
	require.Len(t, events, 5)
	assert.Equal(t, models.JobEventCreated, events[0].Type)
	assert.Equal(t, models.JobEventRated, events[4].Type)

	var tail []models.JobEvent
	runJSON(t, worker, &tail, "jobs", "events", "1", "--start", "3")
	require.Len(t, tail, 2)
	assert.Equal(t, uint64(3), tail[0].Index)

	var jobs []models.Job
	runJSON(t, worker, &jobs, "jobs", "list", "--state", "closed")
	require.Len(t, jobs, 1)

	var review models.Review
	runJSON(t, worker, &review, "jobs", "rate", "1", "--rating", "4")
	assert.Equal(t, creator.Address(), review.Target)
}

func TestJobCommandsTableOutput(t *testing.T) {
	suite := test.NewSuite(t)
	defer suite.Cleanup()

	creator := suite.NewAccount(50)
	_, err := run(t, creator, postJobArgs(50)...)
	require.NoError(t, err)

	out, err := run(t, suite.NewClient(nil), "jobs", "get", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "TITLE")
	assert.Contains(t, out, "translate a document")
	assert.Contains(t, out, string(models.JobPhaseOpen))
	assert.Contains(t, out, creator.Address())
}

func TestJobCommandsErrors(t *testing.T) {
	tests := []struct {
		name          string
		args          []string
		expectedError string
	}{
		{
			name:          "missing required flags",
			args:          []string{"jobs", "post", "--token", test.Token},
			expectedError: "required flag(s)",
		},
		{
			name:          "invalid job id",
			args:          []string{"jobs", "get", "abc"},
			expectedError: `invalid job id "abc"`,
		},
		{
			name:          "missing job id",
			args:          []string{"jobs", "take"},
			expectedError: "accepts 1 arg(s)",
		},
		{
			name:          "invalid content reference",
			args:          []string{"jobs", "post", "--content", "not-a-cid", "--token", test.Token, "--amount", "1"},
			expectedError: "invalid content",
		},
		{
			name:          "unknown job",
			args:          []string{"jobs", "get", "42"},
			expectedError: "not found",
		},
		{
			name:          "invalid output format",
			args:          []string{"jobs", "list", "-o", "xml"},
			expectedError: `invalid output format "xml"`,
		},
		{
			name:          "unfunded job",
			args:          postJobArgs(10),
			expectedError: "error posting job",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			suite := test.NewSuite(t)
			defer suite.Cleanup()

			_, err := run(t, suite.NewAccount(0), tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectedError)
		})
	}
}

func TestWhitelistCommands(t *testing.T) {
	suite := test.NewSuite(t)
	defer suite.Cleanup()

	creator := suite.NewAccount(10)
	worker := suite.NewAccount(0)
	_, err := run(t, creator, postJobArgs(10)...)
	require.NoError(t, err)

	var addresses []string
	runJSON(t, creator, &addresses, "jobs", "whitelist", "add", "1", "--worker", worker.Address())
	assert.Equal(t, []string{worker.Address()}, addresses)

	runJSON(t, worker, &addresses, "jobs", "whitelist", "list", "1")
	assert.Equal(t, []string{worker.Address()}, addresses)

	runJSON(t, creator, &addresses, "jobs", "whitelist", "remove", "1", "--worker", worker.Address())
	assert.Empty(t, addresses)

	out, err := run(t, creator, "jobs", "message", "1", "--content", jobContent, "--recipient", worker.Address())
	require.NoError(t, err)
	assert.Contains(t, out, "Message posted on job 1")
}

func TestUserAndArbitratorCommands(t *testing.T) {
	suite := test.NewSuite(t)
	defer suite.Cleanup()

	alice := suite.NewAccount(0)

	var user models.User
	runJSON(t, alice, &user, "users", "register", "--name", "alice", "--bio", "translator")
	assert.Equal(t, alice.Address(), user.Address)
	assert.Equal(t, "alice", user.Name)
	assert.True(t, user.Registered())

	runJSON(t, alice, &user, "users", "update", "--name", "alice b")
	assert.Equal(t, "alice b", user.Name)

	var users []models.User
	runJSON(t, alice, &users, "users", "list")
	require.Len(t, users, 1)

	var reviews []models.Review
	runJSON(t, alice, &reviews, "users", "reviews", alice.Address())
	assert.Empty(t, reviews)

	_, err := run(t, alice, "users", "register")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error registering user")

	bob := suite.NewAccount(0)
	var arb models.Arbitrator
	runJSON(t, bob, &arb, "arbitrators", "register", "--name", "bob", "--fee-bps", "500")
	assert.Equal(t, uint32(500), arb.FeeBps)

	runJSON(t, alice, &arb, "arbitrators", "get", bob.Address())
	assert.Equal(t, "bob", arb.Name)

	var arbs []models.Arbitrator
	runJSON(t, alice, &arbs, "arbitrators", "list")
	require.Len(t, arbs, 1)
}

func TestBalanceCommands(t *testing.T) {
	suite := test.NewSuite(t)
	defer suite.Cleanup()

	alice := suite.NewAccount(0)
	_, err := run(t, alice, "balance", "deposit", "--token", test.Token, "--amount", "40")
	require.NoError(t, err)
	_, err = run(t, alice, "balance", "withdraw", "--token", test.Token, "--amount", "15")
	require.NoError(t, err)

	out, err := run(t, alice, "balance", "get", "--token", test.Token, "-o", "yaml")
	require.NoError(t, err)
	var balance map[string]interface{}
	require.NoError(t, yaml.Unmarshal([]byte(out), &balance))
	assert.Equal(t, alice.Address(), balance["owner"])
	assert.Equal(t, 25, balance["amount"])

	_, err = run(t, alice, "balance", "withdraw", "--token", test.Token, "--amount", "100")
	require.Error(t, err)
}
