package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/google/uuid"

	"github.com/Bla-nqo/fundiconnect-builder/internal/client"
	"github.com/Bla-nqo/fundiconnect-builder/internal/models"
)

func runLoginCmd(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newFlagSet("login", stderr)
	var (
		c               common
		email, password string
	)
	c.register(cmd)
	cmd.StringVar(&email, "email", "", "Account email (REQUIRED)")
	cmd.StringVar(&password, "password", "", "Account password (REQUIRED)")
	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if email == "" || password == "" {
		_, _ = fmt.Fprintln(stderr, "Error: --email and --password are required")
		return 2
	}

	sess, err := client.SignIn(ctx, c.options(stderr), email, password)
	if err != nil {
		return 1
	}
	u := sess.User()
	_, _ = fmt.Fprintf(stderr, "Signed in as %s (%s)\n", u.FullName, sess.Role())
	_, _ = fmt.Fprintln(stdout, sess.API.Token())
	return 0
}

func runJobsCmd(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newFlagSet("jobs", stderr)
	var (
		c     common
		list  string
		watch bool
	)
	c.register(cmd)
	cmd.StringVar(&list, "list", string(client.JobsMine), "mine, opportunities or assigned")
	cmd.BoolVar(&watch, "watch", false, "Keep the list open and reprint on change")
	if err := cmd.Parse(args); err != nil {
		return 2
	}
	which, ok := client.ParseJobList(list)
	if !ok {
		_, _ = fmt.Fprintf(stderr, "Error: unknown list %q\n", list)
		return 2
	}

	sess, ok := c.session(ctx, stderr)
	if !ok {
		return 1
	}
	defer sess.SignOut(context.Background())

	v, err := sess.OpenJobs(ctx, which)
	if err != nil {
		return 1
	}
	defer v.Close()

	printJobs(stdout, v.Rows())
	if !watch {
		return 0
	}
	drain(v.Jobs.Changes())
	for {
		select {
		case <-ctx.Done():
			return 0
		case <-v.Jobs.Changes():
			_, _ = fmt.Fprintln(stdout, "")
			printJobs(stdout, v.Rows())
		}
	}
}

func printJobs(w io.Writer, rows []client.JobRow) {
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(w, "No jobs")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tTITLE\tSTATUS\tBUDGET\tFUNDI\tPROGRESS")
	for _, r := range rows {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%d%%\n",
			r.ID, r.Title, r.Status, r.Budget, r.FundiName, r.Progress)
	}
	_ = tw.Flush()
}

func parseIDArg(cmd interface{ Arg(int) string }, what string, stderr io.Writer) (uuid.UUID, bool) {
	id, err := uuid.Parse(cmd.Arg(0))
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: expected a %s id\n", what)
		return uuid.Nil, false
	}
	return id, true
}

func runApplyCmd(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newFlagSet("apply", stderr)
	var c common
	c.register(cmd)
	if err := cmd.Parse(args); err != nil {
		return 2
	}
	jobID, ok := parseIDArg(cmd, "job", stderr)
	if !ok {
		return 2
	}

	sess, ok := c.session(ctx, stderr)
	if !ok {
		return 1
	}
	defer sess.SignOut(context.Background())

	v, err := sess.OpenJobs(ctx, client.JobsOpportunities)
	if err != nil {
		return 1
	}
	defer v.Close()

	job, err := v.Apply(ctx, jobID)
	if err != nil {
		return 1
	}
	_, _ = fmt.Fprintf(stdout, "%s: %s\n", job.Title, job.Status)
	return 0
}

func runChatCmd(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cmd := newFlagSet("chat", stderr)
	var (
		c            common
		peer, jobArg string
	)
	c.register(cmd)
	cmd.StringVar(&peer, "peer", "", "User id of the other party (or first argument)")
	cmd.StringVar(&jobArg, "job", "", "Job the conversation is about")
	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if peer == "" {
		peer = cmd.Arg(0)
	}
	peerID, err := uuid.Parse(peer)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, "Error: --peer must be a user id")
		return 2
	}
	var jobID *uuid.UUID
	if jobArg != "" {
		id, err := uuid.Parse(jobArg)
		if err != nil {
			_, _ = fmt.Fprintln(stderr, "Error: --job must be a job id")
			return 2
		}
		jobID = &id
	}

	sess, ok := c.session(ctx, stderr)
	if !ok {
		return 1
	}
	defer sess.SignOut(context.Background())

	conv, err := sess.OpenConversation(ctx, peerID, jobID)
	if err != nil {
		return 1
	}
	defer conv.Close()

	printed := map[uuid.UUID]bool{}
	flush := func() {
		for _, m := range conv.Messages.Snapshot() {
			if printed[m.ID] {
				continue
			}
			printed[m.ID] = true
			who := "them"
			if conv.Mine(m) {
				who = "me"
			}
			_, _ = fmt.Fprintf(stdout, "[%s] %s: %s\n", m.CreatedAt.Local().Format("15:04"), who, m.Content)
		}
	}
	flush()

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(stdin)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return 0
		case <-conv.Messages.Changes():
			flush()
		case line, open := <-lines:
			if !open {
				flush()
				return 0
			}
			// failures are reported through the notifier
			_, _ = conv.Send(ctx, line)
			flush()
		}
	}
}

func runAppealCmd(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newFlagSet("appeal", stderr)
	var (
		c       common
		message string
	)
	c.register(cmd)
	cmd.StringVar(&message, "message", "", "Submit an appeal with this text")
	if err := cmd.Parse(args); err != nil {
		return 2
	}

	sess, ok := c.session(ctx, stderr)
	if !ok {
		return 1
	}
	defer sess.SignOut(context.Background())

	v, err := sess.OpenAppeal(ctx)
	if err != nil {
		return 1
	}
	defer v.Close()

	if message != "" {
		if _, err := v.Submit(ctx, message); err != nil {
			return 1
		}
	}
	printRestriction(stdout, v.Restriction())
	return 0
}

func printRestriction(w io.Writer, r *models.Restriction) {
	if r == nil {
		_, _ = fmt.Fprintln(w, "Your account is not restricted")
		return
	}
	_, _ = fmt.Fprintf(w, "Restricted since %s: %s\n", r.CreatedAt.Local().Format("2006-01-02"), r.Reason)
	for _, a := range r.Appeals {
		line := fmt.Sprintf("  appeal %s (%s)", a.Status, a.CreatedAt.Local().Format("2006-01-02"))
		if resp := a.Response(); resp != "" {
			line += ": " + resp
		}
		_, _ = fmt.Fprintln(w, line)
	}
	if r.HasPendingAppeal() {
		_, _ = fmt.Fprintln(w, "An appeal is under review")
	}
}

func runRateCmd(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newFlagSet("rate", stderr)
	var (
		c      common
		stars  int
		review string
	)
	c.register(cmd)
	cmd.IntVar(&stars, "stars", 0, "Rating from 1 to 5 (REQUIRED)")
	cmd.StringVar(&review, "review", "", "Optional review text")
	if err := cmd.Parse(args); err != nil {
		return 2
	}
	jobID, ok := parseIDArg(cmd, "job", stderr)
	if !ok {
		return 2
	}

	sess, ok := c.session(ctx, stderr)
	if !ok {
		return 1
	}
	defer sess.SignOut(context.Background())

	r, err := sess.SubmitRating(ctx, jobID, stars, review)
	if err != nil {
		return 1
	}
	_, _ = fmt.Fprintln(stdout, "Rated "+strconv.Itoa(r.Rating)+"/5")
	return 0
}

func runStatsCmd(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newFlagSet("stats", stderr)
	var (
		c     common
		watch bool
	)
	c.register(cmd)
	cmd.BoolVar(&watch, "watch", false, "Keep counters live (needs a token)")
	if err := cmd.Parse(args); err != nil {
		return 2
	}

	if !watch {
		api := client.NewAPI(c.url)
		api.Timeout = c.timeout
		var s struct {
			ApprovedFundis int64 `json:"approved_fundis"`
			Users          int64 `json:"users"`
			CompletedJobs  int64 `json:"completed_jobs"`
		}
		if err := api.Get(ctx, "/api/stats", &s); err != nil {
			_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		printStats(stdout, s.ApprovedFundis, s.Users, s.CompletedJobs)
		return 0
	}

	sess, ok := c.session(ctx, stderr)
	if !ok {
		return 1
	}
	defer sess.SignOut(context.Background())

	v, err := sess.OpenStats(ctx)
	if err != nil {
		return 1
	}
	defer v.Close()
	drain(v.Changes())
	for {
		s := v.Stats()
		printStats(stdout, s.ApprovedFundis, s.Users, s.CompletedJobs)
		select {
		case <-ctx.Done():
			return 0
		case <-v.Changes():
		}
	}
}

// drain drops a pending change signal left over from the initial fetch.
func drain(ch <-chan struct{}) {
	select {
	case <-ch:
	default:
	}
}

func printStats(w io.Writer, fundis, users, completed int64) {
	_, _ = fmt.Fprintf(w, "Fundis: %d  Users: %d  Completed jobs: %d\n", fundis, users, completed)
}
