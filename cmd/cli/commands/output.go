package commands

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/effectiveacceleration/marketplace/internal/db/models"
	"github.com/effectiveacceleration/marketplace/pkg/types"
)

// OutputFormat selects how command results are printed
type OutputFormat string

// Supported output formats
const (
	TableFormat OutputFormat = "table"
	JSONFormat  OutputFormat = "json"
	YAMLFormat  OutputFormat = "yaml"
)

// outputFormat is the value of the --output flag
var outputFormat string

func addOutputFlag(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&outputFormat, flagOutput, "o", string(TableFormat), "Output format: table, json or yaml")
}

func parseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(s); f {
	case TableFormat, JSONFormat, YAMLFormat:
		return f, nil
	default:
		return "", fmt.Errorf("invalid output format %q", s)
	}
}

// column is one table column of T
type column[T any] struct {
	Name  string
	Value func(T) string
}

// printList writes items in the selected format
func printList[T any](cmd *cobra.Command, columns []column[T], items []T) error {
	format, err := parseOutputFormat(outputFormat)
	if err != nil {
		return err
	}
	if format == TableFormat {
		printTable(cmd, columns, items)
		return nil
	}
	if items == nil {
		items = []T{}
	}
	return printStructured(cmd, format, items)
}

// printOne writes a single item in the selected format
func printOne[T any](cmd *cobra.Command, columns []column[T], item T) error {
	format, err := parseOutputFormat(outputFormat)
	if err != nil {
		return err
	}
	if format == TableFormat {
		printTable(cmd, columns, []T{item})
		return nil
	}
	return printStructured(cmd, format, item)
}

func printStructured(cmd *cobra.Command, format OutputFormat, v interface{}) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("error formatting response: %w", err)
	}
	if format == JSONFormat {
		fmt.Fprintln(cmd.OutOrStdout(), string(raw))
		return nil
	}

	// Go through JSON so YAML keys and values match the API
	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return fmt.Errorf("error formatting response: %w", err)
	}
	out, err := yaml.Marshal(generic)
	if err != nil {
		return fmt.Errorf("error formatting response: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(out)
	return err
}

func printTable[T any](cmd *cobra.Command, columns []column[T], items []T) {
	tw := table.NewWriter()
	tw.SetOutputMirror(cmd.OutOrStdout())
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(lo.Map(columns, func(c column[T], _ int) interface{} { return c.Name }))
	for _, item := range items {
		tw.AppendRow(lo.Map(columns, func(c column[T], _ int) interface{} { return c.Value(item) }))
	}
	tw.Render()
}

func formatUint(v uint64) string {
	return strconv.FormatUint(v, 10)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

var jobColumns = []column[models.Job]{
	{Name: "ID", Value: func(j models.Job) string { return formatUint(uint64(j.ID)) }},
	{Name: "STATE", Value: func(j models.Job) string { return string(j.Phase()) }},
	{Name: "TITLE", Value: func(j models.Job) string { return j.Title }},
	{Name: "CREATOR", Value: func(j models.Job) string { return j.Creator }},
	{Name: "WORKER", Value: func(j models.Job) string { return j.Worker }},
	{Name: "AMOUNT", Value: func(j models.Job) string { return formatUint(j.Amount) }},
	{Name: "TOKEN", Value: func(j models.Job) string { return j.Token }},
	{Name: "REVISION", Value: func(j models.Job) string { return formatUint(j.Revision) }},
}

var eventColumns = []column[models.JobEvent]{
	{Name: "INDEX", Value: func(e models.JobEvent) string { return formatUint(e.Index) }},
	{Name: "TYPE", Value: func(e models.JobEvent) string { return e.Type.String() }},
	{Name: "ACTOR", Value: func(e models.JobEvent) string { return e.Actor }},
	{Name: "TIME", Value: func(e models.JobEvent) string { return formatTime(e.Timestamp) }},
}

var userColumns = []column[models.User]{
	{Name: "ADDRESS", Value: func(u models.User) string { return u.Address }},
	{Name: "NAME", Value: func(u models.User) string { return u.Name }},
	{Name: "UP", Value: func(u models.User) string { return formatUint(u.ReputationUp) }},
	{Name: "DOWN", Value: func(u models.User) string { return formatUint(u.ReputationDown) }},
	{Name: "RATING", Value: func(u models.User) string { return strconv.FormatFloat(u.AverageRating(), 'f', 2, 64) }},
	{Name: "REVIEWS", Value: func(u models.User) string { return formatUint(u.ReviewCount) }},
}

var arbitratorColumns = []column[models.Arbitrator]{
	{Name: "ADDRESS", Value: func(a models.Arbitrator) string { return a.Address }},
	{Name: "NAME", Value: func(a models.Arbitrator) string { return a.Name }},
	{Name: "FEE BPS", Value: func(a models.Arbitrator) string { return formatUint(uint64(a.FeeBps)) }},
	{Name: "SETTLED", Value: func(a models.Arbitrator) string { return formatUint(a.SettledCount) }},
	{Name: "REFUSED", Value: func(a models.Arbitrator) string { return formatUint(a.RefusedCount) }},
}

var reviewColumns = []column[models.Review]{
	{Name: "JOB", Value: func(r models.Review) string { return formatUint(uint64(r.JobID)) }},
	{Name: "REVIEWER", Value: func(r models.Review) string { return r.Reviewer }},
	{Name: "RATING", Value: func(r models.Review) string { return formatUint(uint64(r.Rating)) }},
	{Name: "TEXT", Value: func(r models.Review) string { return r.Text }},
}

var balanceColumns = []column[types.BalanceResponse]{
	{Name: "OWNER", Value: func(b types.BalanceResponse) string { return b.Owner }},
	{Name: "TOKEN", Value: func(b types.BalanceResponse) string { return b.Token }},
	{Name: "AMOUNT", Value: func(b types.BalanceResponse) string { return formatUint(b.Amount) }},
}

var whitelistColumns = []column[string]{
	{Name: "ADDRESS", Value: func(a string) string { return a }},
}
