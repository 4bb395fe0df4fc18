package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"jobboard-gateway/internal/jobstore"
	"jobboard-gateway/pkg/utils"
)

func (c *cli) listCmd() *cobra.Command {
	var filter jobstore.Filter

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List job postings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			jobs, err := c.app.Store.List(cmd.Context(), filter)
			if err != nil {
				return fmt.Errorf("failed to list jobs: %w", err)
			}
			if c.output == "json" {
				return writeJSON(cmd.OutOrStdout(), jobs)
			}
			return writeTable(cmd.OutOrStdout(), jobs)
		},
	}

	cmd.Flags().StringVar(&filter.UserID, "user", "", "only jobs posted by this user id")
	cmd.Flags().BoolVar(&filter.ExcludeSpam, "exclude-spam", false, "hide jobs flagged as spam")
	return cmd
}

func (c *cli) getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one job posting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil || id < 1 {
				return fmt.Errorf("invalid job id: %q", args[0])
			}

			job, err := c.app.Store.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			if c.output == "json" {
				return writeJSON(cmd.OutOrStdout(), job)
			}
			return writeDetail(cmd.OutOrStdout(), job)
		},
	}
}

func (c *cli) addCmd() *cobra.Command {
	var (
		draft jobstore.Draft
		who   jobstore.Identity
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Append a job posting",
		Long: `Append a job posting to the collection. The id is assigned by the
store; the company summary and spam flag are computed unless --no-enrich
is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			job, err := c.app.Store.Append(cmd.Context(), draft, who)
			if err != nil {
				return fmt.Errorf("failed to add job: %w", err)
			}
			if c.output == "json" {
				return writeJSON(cmd.OutOrStdout(), job)
			}
			return writeDetail(cmd.OutOrStdout(), job)
		},
	}

	f := cmd.Flags()
	f.StringVar(&draft.Title, "title", "", "job title")
	f.StringVar(&draft.Description, "description", "", "job description")
	f.StringVar(&draft.CompanyName, "company", "", "company name")
	f.StringVar(&draft.Location, "location", "", "location")
	f.StringVar(&draft.Domain, "domain", "", "domain, e.g. engineering")
	f.StringVar(&draft.WorkType, "work-type", "", "remote, hybrid or onsite")
	f.StringVar(&draft.EmploymentType, "employment-type", "", "full-time, contract, ...")
	f.StringVar(&draft.UserType, "user-type", "", "poster type, e.g. recruiter")
	f.StringVar(&draft.SalaryRange, "salary", "", "salary range")
	f.StringVar(&draft.ApplyLink, "apply-link", "", "application URL")
	f.StringVar(&draft.CareerLink, "career-link", "", "company careers page used for the summary")
	f.StringVar(&who.UserID, "user-id", "", "poster user id")
	f.StringVar(&who.Login, "created-by", "", "poster login")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("description")
	_ = cmd.MarkFlagRequired("company")
	return cmd
}

func (c *cli) healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Probe the store and LLM provider",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			report := c.app.Health.Check(cmd.Context())
			if c.output == "json" {
				if err := writeJSON(cmd.OutOrStdout(), report); err != nil {
					return err
				}
			} else {
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintf(w, "status\t%s\n", report.Status)
				for name, state := range report.Checks {
					fmt.Fprintf(w, "%s\t%s\n", name, state)
				}
				if err := w.Flush(); err != nil {
					return err
				}
			}
			if !report.Ready {
				return fmt.Errorf("store is %s", report.Status)
			}
			return nil
		},
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeTable(out io.Writer, jobs []jobstore.Job) error {
	if len(jobs) == 0 {
		fmt.Fprintln(out, "No jobs found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tCOMPANY\tLOCATION\tUSER\tSPAM\tCREATED")
	for _, j := range jobs {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%t\t%s\n",
			j.ID,
			utils.Truncate(j.Title, 40),
			utils.Truncate(j.CompanyName, 24),
			j.Location,
			j.UserID,
			j.IsSpam,
			j.CreatedAt.Format("2006-01-02"),
		)
	}
	return w.Flush()
}

func writeDetail(out io.Writer, j jobstore.Job) error {
	summary := "-"
	if j.CompanySummary != nil {
		summary = *j.CompanySummary
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID:\t%d\n", j.ID)
	fmt.Fprintf(w, "Title:\t%s\n", j.Title)
	fmt.Fprintf(w, "Company:\t%s\n", j.CompanyName)
	fmt.Fprintf(w, "Location:\t%s\n", j.Location)
	fmt.Fprintf(w, "Apply:\t%s\n", j.ApplyLink)
	fmt.Fprintf(w, "Summary:\t%s\n", summary)
	fmt.Fprintf(w, "Spam:\t%t\n", j.IsSpam)
	fmt.Fprintf(w, "Posted by:\t%s (%s)\n", j.CreatedBy, j.UserID)
	fmt.Fprintf(w, "Created:\t%s\n", j.CreatedAt.Format("2006-01-02 15:04:05"))
	return w.Flush()
}
